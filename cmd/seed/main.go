// Seed populates the database with development fixtures: one user per role, a
// few categories, and a handful of tickets. Safe to run repeatedly; existing
// rows are left alone.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	categorydomain "ticketdesk/backend/internal/category/domain"
	categoryrepo "ticketdesk/backend/internal/category/repository"
	"ticketdesk/backend/internal/config"
	"ticketdesk/backend/internal/db"
	"ticketdesk/backend/internal/security"
	ticketdomain "ticketdesk/backend/internal/ticket/domain"
	ticketrepo "ticketdesk/backend/internal/ticket/repository"
	userdomain "ticketdesk/backend/internal/user/domain"
	userrepo "ticketdesk/backend/internal/user/repository"
)

const defaultPassword = "SeedPass123!"

type seedUser struct {
	email string
	name  string
	role  userdomain.Role
}

var seedUsers = []seedUser{
	{"admin@seed.local", "Seed Admin", userdomain.RoleAdmin},
	{"agent@seed.local", "Seed Agent", userdomain.RoleAgent},
	{"requester@seed.local", "Seed Requester", userdomain.RoleRequester},
}

var seedCategories = []string{
	"Access Management",
	"Network",
	"Hardware",
	"Software",
}

var seedTickets = []struct {
	title       string
	description string
	priority    ticketdomain.Priority
	category    string
}{
	{"VPN not connecting", "VPN client times out on every connection attempt.", ticketdomain.PriorityHigh, "Network"},
	{"Cannot reset password", "Password reset email never arrives.", ticketdomain.PriorityMedium, "Access Management"},
	{"Laptop running very slow", "Laptop takes several minutes to boot.", ticketdomain.PriorityLow, "Hardware"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("seed: DATABASE_URL is required")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(database)
	categories := categoryrepo.NewPostgresRepository(database)
	tickets := ticketrepo.NewPostgresRepository(database)
	hasher := security.NewHasher(cfg.BcryptCost)

	passwordHash, err := hasher.Hash([]byte(defaultPassword))
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}

	userIDs := map[userdomain.Role]string{}
	for _, su := range seedUsers {
		existing, err := users.GetByEmail(ctx, su.email)
		if err != nil {
			log.Fatalf("seed: lookup user %s: %v", su.email, err)
		}
		if existing != nil {
			userIDs[su.role] = existing.ID
			continue
		}
		now := time.Now().UTC()
		u := &userdomain.User{
			ID:           uuid.New().String(),
			Email:        su.email,
			Name:         su.name,
			PasswordHash: passwordHash,
			Role:         su.role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("seed: create user %s: %v", su.email, err)
		}
		userIDs[su.role] = u.ID
		log.Printf("seed: created user %s (%s)", su.email, su.role)
	}

	categoryIDs := map[string]string{}
	for _, name := range seedCategories {
		existing, err := categories.GetByName(ctx, name)
		if err != nil {
			log.Fatalf("seed: lookup category %s: %v", name, err)
		}
		if existing != nil {
			categoryIDs[name] = existing.ID
			continue
		}
		now := time.Now().UTC()
		c := &categorydomain.Category{
			ID:        uuid.New().String(),
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := categories.Create(ctx, c); err != nil {
			log.Fatalf("seed: create category %s: %v", name, err)
		}
		categoryIDs[name] = c.ID
		log.Printf("seed: created category %s", name)
	}

	existingTickets, err := tickets.CountByRequester(ctx, userIDs[userdomain.RoleRequester])
	if err != nil {
		log.Fatalf("seed: count tickets: %v", err)
	}
	if existingTickets > 0 {
		log.Printf("seed: done (tickets already present, default password %s)", defaultPassword)
		return
	}

	agentID := userIDs[userdomain.RoleAgent]
	for _, st := range seedTickets {
		now := time.Now().UTC()
		categoryID := categoryIDs[st.category]
		t := &ticketdomain.Ticket{
			ID:          uuid.New().String(),
			Title:       st.title,
			Description: st.description,
			Priority:    st.priority,
			Status:      ticketdomain.StatusOpen,
			CategoryID:  &categoryID,
			RequesterID: userIDs[userdomain.RoleRequester],
			AssigneeID:  &agentID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tickets.Create(ctx, t); err != nil {
			log.Fatalf("seed: create ticket %q: %v", st.title, err)
		}
		log.Printf("seed: created ticket %q", st.title)
	}

	log.Printf("seed: done (default password %s)", defaultPassword)
}
