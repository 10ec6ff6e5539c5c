package rpcerr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfClassifiedErrors(t *testing.T) {
	assert.Equal(t, InvalidArgument, KindOf(InvalidArgumentf("bad port %d", 0)))
	assert.Equal(t, PermissionDenied, KindOf(PermissionDeniedf("not allowed")))
	assert.Equal(t, Internal, KindOf(Internalf("boom")))
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, Internal, KindOf(fmt.Errorf("plain error")))
	assert.Equal(t, Internal, KindOf(nil))
}

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("facade: %w", InvalidArgumentf("bad app_id"))
	assert.Equal(t, InvalidArgument, KindOf(wrapped))
}
