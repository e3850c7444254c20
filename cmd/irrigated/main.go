package main

import (
	"context"
	"database/sql"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/furrowlabs/irrigated/internal/api"
	"github.com/furrowlabs/irrigated/internal/efficiency"
	"github.com/furrowlabs/irrigated/internal/engine"
	"github.com/furrowlabs/irrigated/internal/models"
	"github.com/furrowlabs/irrigated/internal/notify"
	"github.com/furrowlabs/irrigated/internal/sched"
	"github.com/furrowlabs/irrigated/internal/store"
	"github.com/furrowlabs/irrigated/internal/weather"
)

var cli struct {
	DB       string `name:"db" default:"data/irrigated.db" help:"Path to SQLite database."`
	Port     string `default:"8080" help:"HTTP server port."`
	Timezone string `default:"America/Los_Angeles" help:"IANA timezone for scheduling."`

	OpenWeatherAPIKey string `env:"OPENWEATHER_API_KEY" help:"OpenWeatherMap API key. Without it a synthetic weather source is used."`

	SMTPHost     string `env:"SMTP_HOST" help:"SMTP host for irrigation alerts. Without it alerts are logged only."`
	SMTPPort     int    `env:"SMTP_PORT" default:"587" help:"SMTP port."`
	SMTPUsername string `env:"SMTP_USERNAME" help:"SMTP username."`
	SMTPPassword string `env:"SMTP_PASSWORD" help:"SMTP password."`
	AlertFrom    string `env:"ALERT_FROM" default:"alerts@irrigated.local" help:"From address for alert email."`

	Once     bool `help:"Run one recommendation batch and exit."`
	NoSched  bool `name:"no-sched" help:"Disable the daily batch scheduler (server only, for local dev)."`
	SeedDemo bool `name:"seed-demo" help:"Seed a demo farmer and crops if the database is empty."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("irrigated"),
		kong.Description("Irrigation decision service: weather-driven watering recommendations and water-use scoring."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	db, err := sql.Open("sqlite", cli.DB)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	loc, err := time.LoadLocation(cli.Timezone)
	if err != nil {
		log.Printf("Warning: could not load %s timezone, using UTC: %v", cli.Timezone, err)
		loc = time.UTC
	}

	st := store.New(db, loc)
	if err := st.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("database migrated")

	if cli.SeedDemo {
		if err := seedDemo(st); err != nil {
			log.Fatalf("seed demo data: %v", err)
		}
	}

	var source weather.Source
	if cli.OpenWeatherAPIKey != "" {
		source = weather.NewOpenWeather(cli.OpenWeatherAPIKey)
		log.Println("using OpenWeatherMap weather source")
	} else {
		source = weather.NewSynthetic()
		log.Println("OPENWEATHER_API_KEY not set, using synthetic weather source")
	}

	var notifier notify.Notifier
	if cli.SMTPHost != "" {
		notifier = notify.NewMailer(cli.SMTPHost, cli.SMTPPort, cli.SMTPUsername, cli.SMTPPassword, cli.AlertFrom)
		log.Printf("alerts via SMTP %s:%d", cli.SMTPHost, cli.SMTPPort)
	} else {
		notifier = notify.LogNotifier{}
		log.Println("SMTP_HOST not set, alerts will be logged only")
	}

	eng := engine.New(st, source, engine.DefaultConfig())
	scorer := efficiency.New(st, efficiency.DefaultConfig())
	scheduler := sched.New(st, eng, scorer, notifier, loc)
	server := api.NewServer(st, eng, scorer, cli.Port, loc)

	if cli.Once {
		log.Println("running single recommendation batch")
		if err := scheduler.RunBatch(context.Background()); err != nil {
			log.Fatalf("batch: %v", err)
		}
		log.Println("done")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !cli.NoSched {
		go func() {
			if err := scheduler.Run(ctx); err != nil {
				log.Printf("scheduler: %v", err)
			}
		}()
	} else {
		log.Println("daily batch disabled (--no-sched)")
	}

	log.Printf("starting server on :%s", cli.Port)
	if err := server.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// seedDemo creates one demo farmer with two crops when the database is
// empty, so the API has something to serve out of the box.
func seedDemo(st *store.Store) error {
	farmers, err := st.ListFarmers()
	if err != nil {
		return err
	}
	if len(farmers) > 0 {
		log.Println("database not empty, skipping demo seed")
		return nil
	}

	f, err := st.CreateFarmer(models.Farmer{
		Name:             "Demo Farmer",
		Email:            "demo@example.com",
		FarmName:         "Demo Valley Farm",
		FarmLocation:     "Fresno, CA",
		Latitude:         sql.NullFloat64{Float64: 36.7378, Valid: true},
		Longitude:        sql.NullFloat64{Float64: -119.7871, Valid: true},
		Elevation:        sql.NullFloat64{Float64: 94, Valid: true},
		TotalAcres:       160,
		SoilType:         "loam",
		IrrigationMethod: "drip",
	})
	if err != nil {
		return err
	}

	crops := []models.Crop{
		{
			FarmerID:     f.ID,
			CropType:     "corn",
			FieldName:    "North 40",
			Acres:        40,
			PlantingDate: time.Now().AddDate(0, -2, 0),
			GrowthStage:  models.StageFlowering,
		},
		{
			FarmerID:     f.ID,
			CropType:     "tomatoes",
			FieldName:    "South Block",
			Acres:        25,
			PlantingDate: time.Now().AddDate(0, -1, -15),
			GrowthStage:  models.StageVegetative,
		},
	}
	for _, c := range crops {
		if _, err := st.CreateCrop(c); err != nil {
			return err
		}
	}
	log.Printf("seeded demo farmer %s with %d crops", f.ID, len(crops))
	return nil
}
