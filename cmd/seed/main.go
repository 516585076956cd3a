package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carewell/clinic-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	hospitals, err := seedHospitals(context.Background(), pool, 5)
	if err != nil {
		log.Fatalf("seed hospitals: %v", err)
	}
	doctors, err := seedDoctors(context.Background(), pool, hospitals, 50)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	patients, err := seedPatients(context.Background(), pool, hospitals, 2000)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, doctors, patients, 500); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedHospitals(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d hospitals", count)

	ids := make([]uuid.UUID, 0, count)
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := fmt.Sprintf("%s %s", gofakeit.City(), gofakeit.RandomString([]string{"General Hospital", "Medical Center", "Clinic"}))

		_, err := tx.Exec(ctx, `
			INSERT INTO hospitals (id, name, created_at, updated_at)
			VALUES ($1, $2, now(), now())
		`, id, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("hospitals seeded")
	return ids, nil
}

type seededDoctor struct {
	ID         uuid.UUID
	HospitalID uuid.UUID
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, hospitals []uuid.UUID, count int) ([]seededDoctor, error) {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	doctors := make([]seededDoctor, 0, count)
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		userID := uuid.New()
		hospitalID := hospitals[gofakeit.Number(0, len(hospitals)-1)]
		name := "Dr. " + gofakeit.Name()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, user_id, name, specialty, hospital_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
		`, id, userID, name, spec, hospitalID)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, seededDoctor{ID: id, HospitalID: hospitalID})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return doctors, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, hospitals []uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 500
	ids := make([]uuid.UUID, 0, count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()
			phone := gofakeit.Phone()
			gender := gofakeit.Gender()
			hospitalID := hospitals[gofakeit.Number(0, len(hospitals)-1)]

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (
					id, name, email, phone, gender, status, last_status_change,
					treatment_days, hospital_id, created_at, updated_at
				)
				VALUES ($1, $2, $3, $4, $5, 'active', now(), 0, $6, now(), now())
			`, id, name, email, phone, gender, hospitalID)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return ids, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, doctors []seededDoctor, patients []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	slots := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "14:00", "14:30", "15:00"}
	types := []string{"consultation", "followup", "checkup"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		doc := doctors[gofakeit.Number(0, len(doctors)-1)]
		pat := patients[gofakeit.Number(0, len(patients)-1)]
		date := time.Now().AddDate(0, 0, gofakeit.Number(1, 30)).Format("2006-01-02")
		slot := slots[gofakeit.Number(0, len(slots)-1)]
		typ := types[gofakeit.Number(0, len(types)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (
				id, patient_id, doctor_id, hospital_id, date, time, type, status,
				treatment_outcome, is_follow_up, needs_time_slot, time_slot_confirmed,
				reminder_sent, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', 'ongoing', false, false, false, false, now(), now())
			ON CONFLICT DO NOTHING
		`, uuid.New(), pat, doc.ID, doc.HospitalID, date, slot, typ)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("appointments seeded")
	return nil
}
