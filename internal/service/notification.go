package service

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"flixcloud/internal/core/domain"
	"flixcloud/internal/core/ports"
	"flixcloud/internal/xmlenc"
)

// ErrMalformedNotification is returned when a notification body is not XML.
var ErrMalformedNotification = errors.New("malformed notification")

// ParseNotification reads a completion callback. Missing fields become
// empty strings and the state is passed through unchecked.
func ParseNotification(raw []byte) (*domain.JobNotification, error) {
	fields, err := xmlenc.ParseFields(raw)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parse notification"), ErrMalformedNotification)
	}

	get := func(key string) string {
		return strings.TrimSpace(fields[key])
	}

	return &domain.JobNotification{
		ID:              get("id"),
		RecipeID:        get("recipe-id"),
		RecipeName:      get("recipe-name"),
		State:           domain.JobState(get("state")),
		ErrorMessage:    get("error-message"),
		InitializedAt:   get("initialized-job-at"),
		FinishedAt:      get("finished-job-at"),
		InputMediaFile:  get("input-media-file"),
		OutputMediaFile: get("output-media-file"),
		WatermarkFile:   get("watermark-file"),
	}, nil
}

// CatchAndParse reads one body from src and parses it.
func CatchAndParse(ctx context.Context, src ports.BodySource) (*domain.JobNotification, error) {
	raw, err := src.ReadBody(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read notification body")
	}
	return ParseNotification(raw)
}
