package migrations

import (
	"context"

	"github.com/bookhub/bookhub.go/db/models"
	"github.com/uptrace/bun"
)

/* Since this init will reflect the latest model fields when run on a fresh db
make sure that when you add/remove columns in subsequent migrations
IfNotExists/IfExists is used, otherwise it's going to result in errors.
*/
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {

		if _, err := db.NewCreateTable().Model((*models.User)(nil)).Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*models.Listing)(nil)).Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*models.ListingRequest)(nil)).Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*models.Transaction)(nil)).Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*models.Notification)(nil)).Exec(ctx); err != nil {
			return err
		}

		// one open or settled request per user per listing
		if _, err := db.NewCreateIndex().
			Model((*models.ListingRequest)(nil)).
			Index("listing_requests_listing_user_idx").
			Unique().
			Column("listing_id", "user_id").
			Exec(ctx); err != nil {
			return err
		}
		return nil
	}, nil)
}
