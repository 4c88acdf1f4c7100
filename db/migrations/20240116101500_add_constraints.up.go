package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {

		if db.Dialect().Name().String() != "pg" {
			fmt.Printf("\033[1;31m%s\033[0m", "You are not using PostgreSQL. DB level checks can not be enabled!\n")
			return nil
		}
		sql := `
			-- the stored credit balance must never go negative,
			-- whatever sequencing bug the application might have
				ALTER TABLE users
				ADD CONSTRAINT check_credits_not_negative
				CHECK (credits >= 0);

			-- a user cannot request their own listing
				ALTER TABLE transactions
				ADD CONSTRAINT check_not_own_listing
				CHECK (from_user_id != to_user_id);

			-- closed enums for the state machines
				ALTER TABLE listings
				ADD CONSTRAINT check_listing_status
				CHECK (status IN ('available', 'pending', 'donated', 'sold'));

				ALTER TABLE listings
				ADD CONSTRAINT check_listing_type
				CHECK (listing_type IN ('donate', 'sell'));

				ALTER TABLE transactions
				ADD CONSTRAINT check_transaction_status
				CHECK (status IN ('pending', 'completed', 'rejected'));

				ALTER TABLE transactions
				ADD CONSTRAINT check_transaction_type
				CHECK (transaction_type IN ('credit', 'purchase'));
		`
		if _, err := db.Exec(sql); err != nil {
			return err
		}
		return nil
	}, nil)
}
