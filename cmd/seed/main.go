// Command main runs the database seeder for Relief Hub.
package main

import (
	"flag"
	"log"

	"reliefhub/internal/bootstrap"
	"reliefhub/internal/config"
	"reliefhub/internal/seed"
)

func main() {
	volunteers := flag.Int("volunteers", 10, "Number of volunteers to create")
	victims := flag.Int("victims", 30, "Number of victims to create")
	resources := flag.Int("resources", 3, "Max resources per volunteer")
	requests := flag.Int("requests", 60, "Number of requests to create")
	approveRatio := flag.Float64("approve-ratio", 0.5, "Fraction of requests decided in the victim's favor")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Apply a named preset instead of the flags (e.g. Demo, Flood)")
	presetFile := flag.String("preset-file", "", "YAML file with additional preset definitions")
	flag.Parse()

	log.Println("Relief Hub database seeder")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	seeder := seed.NewSeeder(db)

	if *preset != "" {
		var extra []seed.Preset
		if *presetFile != "" {
			extra, err = seed.LoadPresets(*presetFile)
			if err != nil {
				log.Fatalf("Failed to load presets: %v", err)
			}
		}
		log.Printf("Applying preset %s", *preset)
		if err := seeder.ApplyPreset(*preset, extra); err != nil {
			log.Fatalf("Preset seeding failed: %v", err)
		}
		log.Println("Seeding complete")
		return
	}

	err = seeder.Run(seed.Options{
		NumVolunteers:         *volunteers,
		NumVictims:            *victims,
		ResourcesPerVolunteer: *resources,
		NumRequests:           *requests,
		ApproveRatio:          *approveRatio,
		ShouldClean:           *shouldClean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}
