package gostreams

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/neilotoole/slogt"
)

func TestLog(t *testing.T) {
	is := is.New(t)

	buf := bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	result, err := ReduceSlice(context.Background(), Log(Sequence(1, 2), log, "ints"))

	is.NoErr(err)
	is.Equal(result, []int{1, 2})

	out := buf.String()

	is.Equal(strings.Count(out, "Emitting element"), 2)
	is.True(strings.Contains(out, "stream=ints"))
	is.True(strings.Contains(out, "Upstream fulfilled"))
	is.True(strings.Contains(out, "elements=2"))
}

func TestLog_Rejected(t *testing.T) {
	is := is.New(t)

	buf := bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := ReduceSlice(context.Background(), Log(Fail[int](errBoom), log, "failing"))

	is.Equal(err, errBoom)

	out := buf.String()

	is.True(strings.Contains(out, "level=WARN"))
	is.True(strings.Contains(out, "err=boom"))
}

func TestLog_CancelledByDownstream(t *testing.T) {
	is := is.New(t)

	s, _ := source[int]()

	logged := Log(s, slogt.New(t), "cancelled")
	logged.Subscribe(nil, nil)
	logged.Cancel(errBoom)

	is.Equal(s.State(), Cancelled)
}
