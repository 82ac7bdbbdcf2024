package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/uniforum/internal/app/models"
	appRepos "github.com/yigit/uniforum/internal/app/repositories"
	"github.com/yigit/uniforum/internal/pkg/apperrors"
)

// DefaultForums are created on startup when they don't exist yet
var DefaultForums = []appModels.Forum{
	{Title: "General", Slug: "general", Description: "Anything that fits nowhere else", Ordering: 0},
}

// CreateDefaultData creates the default forums. Forums that already exist
// are left untouched; failures are collected and returned together.
func CreateDefaultData(ctx context.Context, store appRepos.Store, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default forums...")
	var finalErr error

	for _, def := range DefaultForums {
		_, err := store.Forums().GetBySlug(ctx, def.Slug)
		if err == nil {
			lgr.Debug().Str("slug", def.Slug).Msg("Forum already exists, skipping creation")
			continue
		}
		if !errors.Is(err, apperrors.ErrResourceNotFound) {
			lgr.Error().Err(err).Str("slug", def.Slug).Msg("Error looking up default forum")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		forum := def.Clone()
		err = store.WithTx(ctx, func(ctx context.Context, tx appRepos.Store) error {
			return tx.Forums().Create(ctx, forum)
		})
		switch {
		case errors.Is(err, apperrors.ErrResourceAlreadyExists):
			// created concurrently by another instance
		case err != nil:
			lgr.Error().Err(err).Str("slug", def.Slug).Msg("Error creating default forum")
			finalErr = errors.Join(finalErr, err)
		default:
			lgr.Info().Int64("forumID", forum.ID).Str("slug", forum.Slug).Msg("Default forum created")
		}
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}
