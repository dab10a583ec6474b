package imready

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tilegrid/pkg/dom"
)

// recorder captures callbacks as strings in the order they fire.
type recorder struct {
	log []string
}

func (r *recorder) attach(c *Checker) *Checker {
	return c.
		OnPreReadyElement(func(i int) { r.log = append(r.log, fmt.Sprintf("preReadyElement %d", i)) }).
		OnPreReady(func() { r.log = append(r.log, "preReady") }).
		OnReadyElement(func(e ReadyElementEvent) {
			r.log = append(r.log, fmt.Sprintf("readyElement %d over=%v err=%v", e.Index, e.IsPreReadyOver, e.HasError))
		}).
		OnError(func(e ErrorEvent) { r.log = append(r.log, fmt.Sprintf("error %d", e.Index)) }).
		OnReady(func() { r.log = append(r.log, "ready") })
}

type queue struct{ fns []func() }

func (q *queue) deferFn(fn func()) { q.fns = append(q.fns, fn) }

func (q *queue) flush() {
	for len(q.fns) > 0 {
		fn := q.fns[0]
		q.fns = q.fns[1:]
		fn()
	}
}

func children(t *testing.T, body string) (*dom.Document, []*dom.Element) {
	t.Helper()
	doc, err := dom.ParseString(`<div id="c">` + body + `</div>`)
	require.NoError(t, err)
	c, err := doc.Query("#c")
	require.NoError(t, err)
	return doc, c.Children()
}

func TestCheckIsDeferred(t *testing.T) {
	_, els := children(t, `<div></div>`)
	var q queue
	var r recorder
	r.attach(New("data-grid-", q.deferFn)).Check(els)

	assert.Empty(t, r.log)
	q.flush()
	assert.Equal(t, []string{"preReadyElement 0", "readyElement 0 over=false err=false", "preReady", "ready"}, r.log)
}

func TestCheckEmptyBatch(t *testing.T) {
	var q queue
	var r recorder
	r.attach(New("data-grid-", q.deferFn)).Check(nil)
	q.flush()
	assert.Equal(t, []string{"preReady", "ready"}, r.log)
}

func TestCheckWaitsForMedia(t *testing.T) {
	_, els := children(t, `<img src="a.png"><div><img src="b.png"><img></div><p></p>`)
	var q queue
	var r recorder
	r.attach(New("data-grid-", q.deferFn)).Check(els)
	q.flush()

	assert.Equal(t, []string{"preReadyElement 2", "readyElement 2 over=false err=false"}, r.log)

	r.log = nil
	els[0].Load(10, 10)
	assert.Equal(t, []string{"preReadyElement 0", "readyElement 0 over=false err=false"}, r.log)

	r.log = nil
	inner := els[1].Children()[0]
	inner.Fail(errors.New("broken"))
	assert.Equal(t, []string{
		"error 1",
		"preReadyElement 1",
		"readyElement 1 over=false err=true",
		"preReady",
		"ready",
	}, r.log)
}

func TestCheckDeclaredSizeIsPreReady(t *testing.T) {
	_, els := children(t, `<img src="a.png" width="40" height="30"><img src="b.png" loading="lazy"><div data-grid-skip="true"><img src="c.png"></div>`)
	var q queue
	var r recorder
	r.attach(New("data-grid-", q.deferFn)).Check(els)
	q.flush()

	assert.Equal(t, []string{
		"preReadyElement 0",
		"preReadyElement 1",
		"preReadyElement 2",
		"readyElement 2 over=false err=false",
		"preReady",
	}, r.log)

	r.log = nil
	els[0].Load(40, 30)
	els[1].Load(20, 20)
	assert.Equal(t, []string{
		"readyElement 0 over=true err=false",
		"readyElement 1 over=true err=false",
		"ready",
	}, r.log)
}

func TestCheckAlreadySettledMedia(t *testing.T) {
	_, els := children(t, `<img src="a.png"><img src="b.png">`)
	els[0].Load(1, 1)
	els[1].Fail(nil)

	var q queue
	var r recorder
	r.attach(New("data-grid-", q.deferFn)).Check(els)
	q.flush()

	assert.Equal(t, []string{
		"preReadyElement 0",
		"readyElement 0 over=false err=false",
		"error 1",
		"preReadyElement 1",
		"readyElement 1 over=false err=true",
		"preReady",
		"ready",
	}, r.log)
	assert.Equal(t, 0, els[0].ListenerCount(dom.EventLoad))
}

func TestDestroySilencesChecker(t *testing.T) {
	_, els := children(t, `<img src="a.png">`)
	var q queue
	var r recorder
	c := r.attach(New("data-grid-", q.deferFn))
	c.Check(els)
	q.flush()

	c.Destroy()
	assert.True(t, c.Destroyed())
	assert.Equal(t, 0, els[0].ListenerCount(dom.EventLoad))

	els[0].Load(5, 5)
	assert.Empty(t, r.log)
}

func TestDestroyBeforeEvaluation(t *testing.T) {
	_, els := children(t, `<div></div>`)
	var q queue
	var r recorder
	c := r.attach(New("data-grid-", q.deferFn))
	c.Check(els)
	c.Destroy()
	q.flush()
	assert.Empty(t, r.log)
}
