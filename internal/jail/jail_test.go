package jail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppUserName(t *testing.T) {
	assert.Equal(t, "kari-app-a1", AppUserName("a1"))
}

func TestDeprovisionAppUserRejectsNonKariPrefix(t *testing.T) {
	err := DeprovisionAppUser(context.Background(), "root")
	assert.Error(t, err)
}

func TestDeprovisionAppUserRejectsEmpty(t *testing.T) {
	err := DeprovisionAppUser(context.Background(), "")
	assert.Error(t, err)
}
