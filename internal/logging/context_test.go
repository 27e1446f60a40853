package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter_InContext(t *testing.T) {
	r, _ := newTestRouter()
	ctx := WithRouter(context.Background(), r)

	assert.Same(t, r, FromContext(ctx))
}

func TestRouter_FromContextMissing(t *testing.T) {
	assert.Same(t, Default(), FromContext(context.Background()))
	assert.Same(t, Default(), FromContext(WithRouter(context.Background(), nil)))
}

func TestDefault(t *testing.T) {
	initial := Default()
	assert.NotNil(t, initial)

	r, rec := newTestRouter()
	prev := SetDefault(r)
	t.Cleanup(func() { SetDefault(prev) })

	assert.Same(t, initial, prev)
	assert.Same(t, r, Default())
	assert.Same(t, r, SetDefault(nil))

	FromContext(context.Background()).Info("Sys", "via default")
	rec.AssertLogged(t, LevelInfo, "via default")
}
