package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrRevisionNotFound = errors.New("revision not found")

	// ErrRevisionMismatch guards against a revision id from another post
	// being replayed into this post's context.
	ErrRevisionMismatch = errors.New("revision does not belong to this post")

	// ErrAlreadyEditing means the caller still held an open edit lock on this
	// post; the lock has been released and the caller should start over.
	ErrAlreadyEditing = errors.New("your previous edit lock was released, reopen the post to edit")

	ErrSlugTaken = errors.New("a live post already uses this slug")
)

// LockError is returned when edit access is refused because another editor
// holds an unexpired lock. Lost marks the late variant: the conflict was
// detected at save time rather than on entry.
type LockError struct {
	HolderID   int64
	HolderName string
	Lost       bool
}

func (e *LockError) Error() string {
	if e.Lost {
		return fmt.Sprintf("save refused: your lock expired or the post was taken over by %s", e.HolderName)
	}
	return fmt.Sprintf("post is being edited by %s", e.HolderName)
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return "validation failed: " + strings.Join(messages, "; ")
}
