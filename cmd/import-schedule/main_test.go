package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/events"
	"github.com/kickwager/kickwager-api/internal/services"
)

var _ services.ScoringService = (*remoteScoring)(nil)

func TestSplitURLs(t *testing.T) {
	assert.Equal(t,
		[]string{"https://example.com/week/1", "https://example.com/week/2"},
		splitURLs(" https://example.com/week/1, ,https://example.com/week/2 "))
	assert.Empty(t, splitURLs(" , "))
}

func TestReplyError(t *testing.T) {
	assert.NoError(t, replyError(&events.FinalizeReply{OK: true}))

	err := replyError(&events.FinalizeReply{Code: errors.ErrCodeConflict, Error: "game has already been finalized"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeConflict))
	assert.Contains(t, err.Error(), "already been finalized")

	err = replyError(&events.FinalizeReply{})
	assert.Equal(t, errors.ErrCodeInternalError, errors.CodeOf(err))
}
