package methods

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/value"
)

func resolve(t *testing.T, m workflow.Method, raw map[string]string) workflow.Parameters {
	t.Helper()
	params, _, err := m.Schema().Resolve(raw)
	require.NoError(t, err)
	return params
}

func TestAnnotate(t *testing.T) {
	t.Parallel()

	m := Annotate()
	entity := &workflow.Entity{Name: "inj1"}
	params := resolve(t, m, map[string]string{"key": "tag", "value": "blank"})

	require.NoError(t, m.Execute(context.Background(), entity, params, nil))
	got, ok := entity.Result("tag")
	require.True(t, ok)
	require.Equal(t, "blank", got.String())

	overrides := workflow.Overrides{"value": value.Of(3)}
	require.NoError(t, m.Execute(context.Background(), entity, params, overrides))
	got, _ = entity.Result("tag")
	require.Equal(t, value.Int, got.Kind())
}

func TestAnnotateEmptyKey(t *testing.T) {
	t.Parallel()

	m := Annotate()
	params := resolve(t, m, nil)
	overrides := workflow.Overrides{"key": value.Of("")}
	require.Error(t, m.Execute(context.Background(), &workflow.Entity{Name: "inj1"}, params, overrides))
}

func TestWait(t *testing.T) {
	t.Parallel()

	m := Wait()
	entity := &workflow.Entity{Name: "inj1"}
	params := resolve(t, m, map[string]string{"duration_ms": "1"})

	require.NoError(t, m.Execute(context.Background(), entity, params, nil))
	_, ok := entity.Result("waited_ms")
	require.True(t, ok)

	negative := workflow.Overrides{"duration_ms": value.Of(-5)}
	require.Error(t, m.Execute(context.Background(), entity, params, negative))
}

func TestWaitHonoursContext(t *testing.T) {
	t.Parallel()

	m := Wait()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	params := resolve(t, m, map[string]string{"duration_ms": "60000"})
	start := time.Now()
	err := m.Execute(ctx, &workflow.Entity{Name: "inj1"}, params, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), 10*time.Second)
}

func TestFailOn(t *testing.T) {
	t.Parallel()

	m := FailOn()
	params := resolve(t, m, map[string]string{"entities": "[inj2, inj3]", "message": "saturated"})

	ok := &workflow.Entity{Name: "inj1"}
	require.NoError(t, m.Execute(context.Background(), ok, params, nil))
	checked, _ := ok.Result("checked")
	require.Equal(t, "true", checked.String())

	err := m.Execute(context.Background(), &workflow.Entity{Name: "inj2"}, params, nil)
	require.EqualError(t, err, "saturated")
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	m := SummarizeSegment()
	require.Equal(t, workflow.Segment, m.Kind())
	require.Equal(t, workflow.Group, SummarizeGroup().Kind())

	entity := &workflow.Entity{Name: "seg1", Members: []string{"inj2", "inj1"}}
	params := resolve(t, m, map[string]string{"label": "bracket"})
	require.NoError(t, m.Execute(context.Background(), entity, params, nil))

	count, _ := entity.Result("member_count")
	n, ok := count.Int()
	require.True(t, ok)
	require.Equal(t, 2, n)
	members, _ := entity.Result("members")
	list, _ := members.StringList()
	require.Equal(t, []string{"inj1", "inj2"}, list)
	label, _ := entity.Result("label")
	require.Equal(t, "bracket", label.String())

	strict := resolve(t, m, map[string]string{"min_members": "3"})
	require.ErrorContains(t, m.Execute(context.Background(), entity, strict, nil), "need 3")
}
