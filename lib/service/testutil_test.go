package service_test

import (
	"context"
	"fmt"

	"github.com/bookhub/bookhub.go/common"
	"github.com/bookhub/bookhub.go/db"
	"github.com/bookhub/bookhub.go/db/migrations"
	"github.com/bookhub/bookhub.go/db/models"
	"github.com/bookhub/bookhub.go/lib/logging"
	"github.com/bookhub/bookhub.go/lib/service"
	"github.com/uptrace/bun/migrate"
)

func bookhubTestServiceInit() (svc *service.BookhubService, err error) {
	c := &service.Config{
		DatabaseUri:             ":memory:",
		DatabaseMaxConns:        1,
		DatabaseMaxIdleConns:    1,
		DatabaseConnMaxLifetime: 10,
		JWTSecret:               []byte("SECRET"),
		JWTAccessTokenExpiry:    3600,
		JWTRefreshTokenExpiry:   3600,
	}

	dbConn, err := db.Open(c)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx := context.Background()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	err = migrator.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init migrations: %w", err)
	}
	_, err = migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	logger := logging.Logger(c.LogFilePath)
	svc = &service.BookhubService{
		Config:             c,
		DB:                 dbConn,
		Logger:             logger,
		NotificationPubSub: service.NewPubsub(),
	}
	return svc, nil
}

func createTestUser(svc *service.BookhubService, credits int64) (*models.User, error) {
	user, err := svc.CreateUser(context.Background(), service.CreateUserParams{
		FirstName: "Test",
		LastName:  "Reader",
	})
	if err != nil {
		return nil, err
	}
	if credits != common.StartingCredits {
		_, err = svc.DB.NewUpdate().
			Model((*models.User)(nil)).
			Set("credits = ?", credits).
			Where("id = ?", user.ID).
			Exec(context.Background())
		if err != nil {
			return nil, err
		}
		user.Credits = credits
	}
	return user, nil
}

func createTestListing(svc *service.BookhubService, ownerId int64, listingType string) (*models.Listing, error) {
	params := service.CreateListingParams{
		BookName:    "The Go Programming Language",
		AuthorName:  "Donovan & Kernighan",
		ListingType: listingType,
		Address:     "42 Test Street",
	}
	if listingType == common.ListingTypeSell {
		params.Price = 250
		params.PaymentMethod = "cash_on_delivery"
	}
	return svc.CreateListing(context.Background(), ownerId, params)
}
