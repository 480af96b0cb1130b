package cmd

import (
	"fmt"
	"log"

	"github.com/accendhq/accend/internal/user"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample accounts for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"requests", "bookings", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		accounts := []struct {
			Email string
			Name  string
			Role  user.Role
		}{
			{"ana@accend.dev", "Ana Admin", user.RoleAdmin},
			{"dev@accend.dev", "Devin Developer", user.RoleDeveloper},
			{"quinn@accend.dev", "Quinn QA", user.RoleQA},
		}

		for _, a := range accounts {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE email = ?", a.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Println("user already exists:", a.Email)
				continue
			}

			level := user.DefaultAccessLevel(a.Role)
			if err := db.Exec(
				"INSERT INTO users (email, name, password_hash, role, access_level, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())",
				a.Email, a.Name, string(hash), string(a.Role), level,
			).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", a.Email, err)
			}
			fmt.Printf("Seeded %s user: %s\n", a.Role, a.Email)
		}

		fmt.Println("Seed complete; all accounts use password:", password)
	},
}
