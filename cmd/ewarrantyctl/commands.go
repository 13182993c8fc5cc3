package main

import (
	"errors"
	"fmt"

	"ewarranty/internal/config"
	"ewarranty/internal/domain"
	"ewarranty/internal/dto"
	"ewarranty/internal/infra"
	"ewarranty/internal/model"
	"ewarranty/internal/repository"
	"ewarranty/internal/service"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	adminUsername string
	adminPassword string
	hashCost      int
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long: `Create an administrator account in the configured database.

Tables are migrated and reference data is seeded first, so this is safe to run
against an empty database.`,
	RunE: runCreateAdmin,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print the bcrypt hash of a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := bcrypt.GenerateFromPassword([]byte(args[0]), hashCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(h))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate tables and insert the states and car parts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer closeDatabase(db)
		if err := infra.SeedReferenceData(cmd.Context(), db); err != nil {
			return err
		}
		var states, parts int64
		if err := db.Model(&model.MsiaState{}).Count(&states).Error; err != nil {
			return err
		}
		if err := db.Model(&model.CarPart{}).Count(&parts).Error; err != nil {
			return err
		}
		log.Info().Int64("states", states).Int64("car_parts", parts).Msg("reference data ready")
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVarP(&adminUsername, "username", "u", "admin", "login name")
	createAdminCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "password (at least 8 characters)")
	_ = createAdminCmd.MarkFlagRequired("password")
	hashPasswordCmd.Flags().IntVar(&hashCost, "cost", 12, "bcrypt cost")
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	auth := service.NewAuthService(repository.NewUserRepository(db), repository.NewShopRepository(db), cfg)
	bootstrap := domain.Actor{Username: "ewarrantyctl", Role: domain.RoleAdmin}
	user, err := auth.CreateUser(cmd.Context(), bootstrap, dto.CreateUserRequest{
		Username: adminUsername,
		Password: adminPassword,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid admin account: %v", verr.Reasons)
		}
		return err
	}
	log.Info().Uint("id", user.ID).Str("username", user.Username).Msg("administrator created")
	return nil
}

// openDatabase migrates and seeds as a side effect.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
