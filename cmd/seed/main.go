package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"travelhub/internal/catalog"
	"travelhub/internal/coupons"
	"travelhub/internal/profiles"
	"travelhub/internal/seats"
	"travelhub/internal/shared/config"
	"travelhub/internal/shared/database"
	"travelhub/internal/users"
	"travelhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Seeder struct {
	db    *database.DB
	seats seats.Service
	now   time.Time
}

func main() {
	_ = godotenv.Load()
	fmt.Println("Starting TravelHub database seeder...")

	cfg := config.Load()
	appLogger := logger.NewWithWriter(log.Writer(), "warn")

	db, err := database.InitDB(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{
		db:    db,
		seats: seats.NewService(seats.NewRepository(db.PostgreSQL), nil, nil, nil, nil, 0, appLogger),
		now:   time.Now().UTC().Truncate(time.Hour),
	}

	fmt.Println("\nCleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}

	fmt.Println("\nSeeding database...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Println("\nSeeding completed. Database is ready for testing.")
}

// CleanDatabase truncates every table, children first.
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payment_details",
		"payments",
		"bookings",
		"seats",
		"coupons",
		"events",
		"movies",
		"buses",
		"train_routes",
		"flights",
		"profiles",
		"users",
	}

	return s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *Seeder) SeedAll(ctx context.Context) error {
	userIDs, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	if err := s.SeedTravel(); err != nil {
		return fmt.Errorf("failed to seed travel catalog: %w", err)
	}
	if err := s.SeedMovies(); err != nil {
		return fmt.Errorf("failed to seed movies: %w", err)
	}
	if err := s.SeedEvents(ctx, userIDs["admin"]); err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}
	if err := s.SeedCoupons(); err != nil {
		return fmt.Errorf("failed to seed coupons: %w", err)
	}
	return nil
}

// SeedUsers creates one admin and two travellers, all with password "qwerty".
func (s *Seeder) SeedUsers() (map[string]uuid.UUID, error) {
	fmt.Println("  Seeding users...")

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		role      users.Role
	}{
		{"admin", "Admin", "User", "admin@travelhub.local", users.RoleAdmin},
		{"asha", "Asha", "Rao", "asha@travelhub.local", users.RoleUser},
		{"vikram", "Vikram", "Menon", "vikram@travelhub.local", users.RoleUser},
	}

	userIDs := make(map[string]uuid.UUID, len(usersData))
	for _, d := range usersData {
		user := users.User{
			FirstName: d.firstName,
			LastName:  d.lastName,
			Email:     d.email,
			Password:  string(hashedPassword),
			Role:      d.role,
		}
		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", d.email, err)
		}
		profile := profiles.Profile{ID: user.ID, FirstName: d.firstName, LastName: d.lastName}
		if err := s.db.PostgreSQL.Create(&profile).Error; err != nil {
			return nil, fmt.Errorf("failed to create profile for %s: %w", d.email, err)
		}

		userIDs[d.key] = user.ID
		fmt.Printf("    Created user: %s (%s)\n", user.Email, user.Role)
	}
	return userIDs, nil
}

func (s *Seeder) SeedTravel() error {
	fmt.Println("  Seeding flights, trains and buses...")

	day := s.now.Add(72 * time.Hour)
	flights := []catalog.Flight{
		{Airline: "IndiGo", FlightNumber: "6E-201", Origin: "Mumbai", Destination: "Delhi", DepartureTime: day.Add(6 * time.Hour), ArrivalTime: day.Add(8*time.Hour + 10*time.Minute), BasePrice: decimal.NewFromInt(4500)},
		{Airline: "Air India", FlightNumber: "AI-665", Origin: "Delhi", Destination: "Bengaluru", DepartureTime: day.Add(9 * time.Hour), ArrivalTime: day.Add(11*time.Hour + 45*time.Minute), BasePrice: decimal.NewFromInt(5200)},
		{Airline: "Vistara", FlightNumber: "UK-815", Origin: "Bengaluru", Destination: "Mumbai", DepartureTime: day.Add(30 * time.Hour), ArrivalTime: day.Add(31*time.Hour + 40*time.Minute), BasePrice: decimal.NewFromInt(3900)},
	}
	if err := s.db.PostgreSQL.Create(&flights).Error; err != nil {
		return err
	}

	trains := []catalog.TrainRoute{
		{TrainName: "Rajdhani Express", TrainNumber: "12951", Origin: "Mumbai", Destination: "Delhi", DepartureTime: day.Add(17 * time.Hour), ArrivalTime: day.Add(33 * time.Hour)},
		{TrainName: "Shatabdi Express", TrainNumber: "12007", Origin: "Chennai", Destination: "Mysuru", DepartureTime: day.Add(6 * time.Hour), ArrivalTime: day.Add(13 * time.Hour)},
	}
	if err := s.db.PostgreSQL.Create(&trains).Error; err != nil {
		return err
	}

	buses := []catalog.Bus{
		{Operator: "VRL Travels", BusType: catalog.BusSleeper, Origin: "Bengaluru", Destination: "Goa", DepartureTime: day.Add(21 * time.Hour), ArrivalTime: day.Add(32 * time.Hour)},
		{Operator: "Neeta Tours", BusType: catalog.BusSeater, Origin: "Mumbai", Destination: "Pune", DepartureTime: day.Add(7 * time.Hour), ArrivalTime: day.Add(11 * time.Hour)},
	}
	if err := s.db.PostgreSQL.Create(&buses).Error; err != nil {
		return err
	}

	fmt.Printf("    Created %d flights, %d trains, %d buses\n", len(flights), len(trains), len(buses))
	return nil
}

func (s *Seeder) SeedMovies() error {
	fmt.Println("  Seeding movies...")

	evening := s.now.Add(48 * time.Hour)
	movies := []catalog.Movie{
		{Title: "The Long Monsoon", Genre: "Drama", Language: "Hindi", DurationMinutes: 142, Rating: "U/A", Theater: "PVR Phoenix, Mumbai", ShowTime: evening.Add(19 * time.Hour)},
		{Title: "Orbit Nine", Genre: "Sci-Fi", Language: "English", DurationMinutes: 128, Rating: "U/A", Theater: "INOX Forum, Bengaluru", ShowTime: evening.Add(21 * time.Hour)},
		{Title: "Kitchen Kings", Genre: "Comedy", Language: "Tamil", DurationMinutes: 115, Rating: "U", Theater: "Sathyam, Chennai", ShowTime: evening.Add(15 * time.Hour)},
	}
	if err := s.db.PostgreSQL.Create(&movies).Error; err != nil {
		return err
	}
	fmt.Printf("    Created %d movies\n", len(movies))
	return nil
}

// SeedEvents creates events together with their seat grids.
func (s *Seeder) SeedEvents(ctx context.Context, adminID uuid.UUID) error {
	fmt.Println("  Seeding events...")

	eventsData := []catalog.Event{
		{Name: "Arijit Live in Concert", Description: "An evening of live music.", Venue: "NSCI Dome, Mumbai", DateTime: s.now.Add(14 * 24 * time.Hour), Rows: 10, SeatsPerRow: 12, BasePrice: decimal.NewFromInt(1500)},
		{Name: "Stand-up Night", Description: "Four comics, one stage.", Venue: "Canvas Laugh Club, Mumbai", DateTime: s.now.Add(5 * 24 * time.Hour), Rows: 6, SeatsPerRow: 10, BasePrice: decimal.NewFromInt(600)},
		{Name: "Indie Music Festival", Description: "Two stages of independent artists.", Venue: "Jayamahal Palace, Bengaluru", DateTime: s.now.Add(30 * 24 * time.Hour), Rows: 12, SeatsPerRow: 15, BasePrice: decimal.NewFromInt(2200)},
	}

	for i := range eventsData {
		event := &eventsData[i]
		event.CreatedBy = adminID
		err := s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(event).Error; err != nil {
				return err
			}
			return s.seats.CreateEventSeats(ctx, tx, event)
		})
		if err != nil {
			return fmt.Errorf("failed to create event %s: %w", event.Name, err)
		}
		fmt.Printf("    Created event: %s (%d seats)\n", event.Name, event.Rows*event.SeatsPerRow)
	}
	return nil
}

func (s *Seeder) SeedCoupons() error {
	fmt.Println("  Seeding coupons...")

	dec := func(v int64) *decimal.Decimal { d := decimal.NewFromInt(v); return &d }
	list := []coupons.Coupon{
		{Code: "SAVE10", Description: "10% off any booking", DiscountPercentage: dec(10), ValidFrom: s.now, ValidUntil: s.now.AddDate(0, 3, 0), MaxUses: 1000},
		{Code: "FLAT200", Description: "Rs 200 off", DiscountAmount: dec(200), ValidFrom: s.now, ValidUntil: s.now.AddDate(0, 1, 0), MaxUses: 250},
		{Code: "WELCOME25", Description: "25% off your first trip", DiscountPercentage: dec(25), ValidFrom: s.now, ValidUntil: s.now.AddDate(0, 0, 14), MaxUses: 50},
		{Code: "EXPIRED5", Description: "Lapsed promotion", DiscountPercentage: dec(5), ValidFrom: s.now.AddDate(0, -2, 0), ValidUntil: s.now.AddDate(0, -1, 0), MaxUses: 100},
	}
	if err := s.db.PostgreSQL.Create(&list).Error; err != nil {
		return err
	}
	fmt.Printf("    Created %d coupons\n", len(list))
	return nil
}
