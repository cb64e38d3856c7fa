package audit

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"reminder/internal/manager"
)

func TestKey(t *testing.T) {
	at := time.Unix(1700000000, 42)
	cases := []struct {
		ev   manager.Event
		want string
	}{
		{manager.Event{Op: "add", TaskID: "abc", At: at}, "reminder:audit:add:abc:1700000000000000042"},
		{manager.Event{Op: "clear", At: at}, "reminder:audit:clear:all:1700000000000000042"},
	}
	for _, c := range cases {
		if got := Key("reminder:audit", c.ev); got != c.want {
			t.Errorf("Key(%+v) = %q, ожидалось %q", c.ev, got, c.want)
		}
	}
}

func TestSortByTime(t *testing.T) {
	keys := []string{"p:add:x:30", "p:clear:all:5", "p:delete:y:100"}
	sortByTime(keys)
	if keys[0] != "p:clear:all:5" || keys[2] != "p:delete:y:100" {
		t.Errorf("Неожиданный порядок %v", keys)
	}
}

func TestLogEventUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	l := &RedisLogger{client: client, prefix: "test", ttl: time.Minute}

	before := testutil.ToFloat64(auditWrites.WithLabelValues("error"))
	err := l.LogEvent(context.Background(), manager.Event{Op: "add", TaskID: "x", At: time.Now()})
	if err == nil {
		t.Fatal("Ожидалась ошибка для недоступного Redis")
	}
	if got := testutil.ToFloat64(auditWrites.WithLabelValues("error")) - before; got != 1 {
		t.Errorf("Прирост счетчика ошибок = %v, ожидалось 1", got)
	}
}
