package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/mediconnect/mediconnect-api/internal/config"
	"github.com/mediconnect/mediconnect-api/internal/model"
	"github.com/mediconnect/mediconnect-api/internal/repository/postgres"
	"github.com/mediconnect/mediconnect-api/internal/schedule"
	"github.com/mediconnect/mediconnect-api/pkg/logger"
	"github.com/mediconnect/mediconnect-api/pkg/security"
)

const seedPassword = "password123"

var specializations = []string{
	"Cardiology", "Dermatology", "General Medicine", "Neurology",
	"Orthopedics", "Pediatrics", "Psychiatry",
}

// Demo-data seeder. Everything it creates signs in with the same
// password so the dataset is usable straight away.
func main() {
	doctors := flag.Int("doctors", 8, "number of doctors to create")
	patients := flag.Int("patients", 25, "number of patients to create")
	medicines := flag.Int("medicines", 40, "number of medicines to create")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	users := postgres.NewUserRepository(base)
	doctorRepo := postgres.NewDoctorRepository(base)
	medicineRepo := postgres.NewMedicineRepository(base)

	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash(seedPassword)
	if err != nil {
		log.Fatal(err, "failed to hash seed password")
	}

	ctx := context.Background()

	admin := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Name:         "Admin",
		Email:        "admin@mediconnect.local",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Status:       model.UserStatusActive,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatal(err, "failed to create admin")
	}

	pharmacist := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Name:         gofakeit.Name(),
		Email:        "pharmacist@mediconnect.local",
		PasswordHash: hash,
		Role:         model.RolePharmacist,
		Status:       model.UserStatusActive,
	}
	if err := users.Create(ctx, pharmacist); err != nil {
		log.Fatal(err, "failed to create pharmacist")
	}

	for i := 0; i < *doctors; i++ {
		user := &model.User{
			Base:         model.Base{ID: uuid.New()},
			Name:         gofakeit.Name(),
			Email:        gofakeit.Email(),
			PasswordHash: hash,
			Role:         model.RoleDoctor,
			Status:       model.UserStatusActive,
		}
		if err := users.Create(ctx, user); err != nil {
			log.Fatal(err, "failed to create doctor")
		}

		profile := &model.DoctorProfile{
			UserID:         user.ID,
			Specialization: specializations[i%len(specializations)],
			Bio:            gofakeit.Sentence(12),
			FeeCents:       int64(gofakeit.Number(2000, 15000)),
			WorkingDays:    pq.StringArray{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
			WorkStart:      schedule.New(9, 0),
			WorkEnd:        schedule.New(17, 0),
			SlotMinutes:    30,
		}
		if err := doctorRepo.UpsertProfile(ctx, profile); err != nil {
			log.Fatal(err, "failed to create doctor profile")
		}
	}

	for i := 0; i < *patients; i++ {
		user := &model.User{
			Base:         model.Base{ID: uuid.New()},
			Name:         gofakeit.Name(),
			Email:        gofakeit.Email(),
			PasswordHash: hash,
			Role:         model.RolePatient,
			Status:       model.UserStatusActive,
		}
		if err := users.Create(ctx, user); err != nil {
			log.Fatal(err, "failed to create patient")
		}
		if err := users.CreatePatientProfile(ctx, &model.PatientProfile{
			UserID:  user.ID,
			Address: gofakeit.Address().Address,
		}); err != nil {
			log.Fatal(err, "failed to create patient profile")
		}
	}

	for i := 0; i < *medicines; i++ {
		m := &model.Medicine{
			Base:         model.Base{ID: uuid.New()},
			Name:         gofakeit.ProductName(),
			Description:  gofakeit.Sentence(10),
			Manufacturer: gofakeit.Company(),
			PriceCents:   int64(gofakeit.Number(200, 9000)),
			Stock:        gofakeit.Number(0, 500),
			RequiresRx:   gofakeit.Bool(),
		}
		if err := medicineRepo.Create(ctx, m); err != nil {
			log.Fatal(err, "failed to create medicine")
		}
	}

	log.Info("seed complete",
		"doctors", *doctors, "patients", *patients, "medicines", *medicines)
}
