package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchStatusValid(t *testing.T) {
	for _, s := range []WatchStatus{StatusPlanToWatch, StatusWatching, StatusCompleted} {
		assert.True(t, s.Valid(), s)
	}
	for _, s := range []WatchStatus{"", "dropped", "COMPLETED", "plan to watch"} {
		assert.False(t, s.Valid(), s)
	}
}

func TestUserPublic(t *testing.T) {
	u := User{ID: 7, Username: "jiwoo", Email: "jiwoo@example.com", PasswordHash: "$2a$10$x"}
	assert.Equal(t, PublicUser{ID: 7, Username: "jiwoo", Email: "jiwoo@example.com"}, u.Public())
}
