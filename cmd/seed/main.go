// Seed inserts the starter pages and default site settings. Safe to run
// repeatedly; existing slugs are left alone.
package main

import (
	"context"
	"errors"
	"log"

	"github.com/rpattn/lexcms/internal/config"
	"github.com/rpattn/lexcms/internal/db"
	"github.com/rpattn/lexcms/internal/domain"
	"github.com/rpattn/lexcms/internal/repository"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(conn.Pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	pageRepo := repository.NewPageRepository(conn.Pool)
	settingsRepo := repository.NewSettingsRepository(conn.Pool)

	for _, page := range starterPages() {
		if _, err := pageRepo.GetBySlug(ctx, page.Slug); err == nil {
			log.Printf("page %q already exists, skipping", page.Slug)
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			log.Fatalf("Failed to check page %q: %v", page.Slug, err)
		}

		if _, err := pageRepo.Create(ctx, page); err != nil {
			log.Fatalf("Failed to seed page %q: %v", page.Slug, err)
		}
		log.Printf("seeded page %q", page.Slug)
	}

	settings, err := settingsRepo.Get(ctx)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if len(settings.Data) == 0 {
		if _, err := settingsRepo.Put(ctx, defaultSettings()); err != nil {
			log.Fatalf("Failed to seed settings: %v", err)
		}
		log.Println("seeded default settings")
	}

	log.Println("Seed complete")
}

func starterPages() []domain.Page {
	home := domain.NewPage("home", "Welcome to Meridian Law", domain.PageStatusPublished, map[string]any{
		"hero": map[string]any{
			"title":    "Meridian Law fights for you",
			"subtitle": "Trusted counsel for families and small businesses",
			"cta":      "Schedule a consultation",
		},
		"highlights": []any{
			map[string]any{"label": "Family Law", "blurb": "Divorce, custody, and support"},
			map[string]any{"label": "Estate Planning", "blurb": "Wills, trusts, and probate"},
			map[string]any{"label": "Business Law", "blurb": "Formation to contracts"},
		},
	})
	home.MetaTitle = "Meridian Law | Home"
	home.MetaDescription = "Meridian Law: trusted counsel for families and small businesses."

	about := domain.NewPage("about", "About Our Firm", domain.PageStatusPublished, map[string]any{
		"body": "Meridian Law has served the community for over twenty years.",
		"team": []any{
			map[string]any{"name": "Jordan Reyes", "role": "Managing Partner"},
			map[string]any{"name": "Sam Whitfield", "role": "Associate"},
		},
	})
	about.MetaTitle = "About | Meridian Law"

	contact := domain.NewPage("contact", "Contact Us", domain.PageStatusPublished, map[string]any{
		"phone":   "(555) 014-2200",
		"email":   "intake@meridianlaw.example",
		"address": "210 Harbor Street, Suite 4",
	})

	practice := domain.NewPage("practice-areas", "Practice Areas", domain.PageStatusDraft, map[string]any{
		"areas": []any{
			map[string]any{"title": "Family Law", "summary": "Compassionate representation in difficult times."},
			map[string]any{"title": "Estate Planning", "summary": "Protect what matters most."},
		},
	})

	return []domain.Page{home, about, contact, practice}
}

func defaultSettings() map[string]any {
	return map[string]any{
		"siteName":   "Meridian Law",
		"tagline":    "Trusted counsel, close to home",
		"phone":      "(555) 014-2200",
		"footerText": "Attorney advertising. Prior results do not guarantee a similar outcome.",
	}
}
