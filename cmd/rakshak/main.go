package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/facematch"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/metrics"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/pipeline"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/profile"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/reporter"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/version"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/internal/vision"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/server"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/store"
	"github.com/ShanmugaRamana/ProjectRakshak-V2/store/db/mongo"
)

var rootCmd = &cobra.Command{
	Use:   "rakshak",
	Short: `Live face-matching service for missing persons. Watches camera feeds and reports sightings of registered lost persons.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Ignore error if no .env file exists; env vars still apply.
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:               viper.GetString("mode"),
			Addr:               viper.GetString("addr"),
			Port:               viper.GetInt("port"),
			MongoURI:           viper.GetString("mongo-uri"),
			ReportURL:          viper.GetString("report-url"),
			InferenceURL:       viper.GetString("inference-url"),
			Cameras:            profile.SplitCameraList(viper.GetString("cameras")),
			MatchThreshold:     viper.GetFloat64("match-threshold"),
			VerifyThreshold:    viper.GetFloat64("verify-threshold"),
			DuplicateThreshold: viper.GetFloat64("duplicate-threshold"),
			DetectionInterval:  viper.GetInt("detection-interval"),
			MaxImageSize:       viper.GetInt("max-image-size"),
			Version:            version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			panic(err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		driver, err := mongo.NewDriver(ctx, instanceProfile.MongoURI)
		if err != nil {
			slog.Error("failed to connect to mongodb", "error", err)
			return
		}
		defer driver.Close(context.Background())

		index := facematch.NewIndex()
		storeInstance := store.New(driver)
		if err := storeInstance.LoadIndex(ctx, index); err != nil {
			slog.Error("failed to load person index", "error", err)
			return
		}

		m := metrics.New()
		analyzer := vision.NewRemoteAnalyzer(instanceProfile.InferenceURL, 0)
		dispatcher := reporter.NewDispatcher(instanceProfile.ReportURL, 0)
		publisher := pipeline.NewPublisher(pipeline.CameraLabels(instanceProfile.Cameras))

		manager := pipeline.NewManager(
			instanceProfile.Cameras, vision.DefaultSourceFactory,
			analyzer, analyzer,
			index, instanceProfile.Thresholds(),
			dispatcher, publisher,
			storeInstance, m,
			instanceProfile.DetectionInterval, 0,
		)
		go func() {
			if err := manager.Run(ctx); err != nil {
				slog.Error("camera manager stopped", "error", err)
				cancel()
			}
		}()

		s := server.NewServer(instanceProfile, index, publisher, analyzer, m)

		c := make(chan os.Signal, 1)
		// The default signal sent by `kill` is SIGTERM, which is the graceful
		// shutdown signal used by most process managers.
		signal.Notify(c, terminationSignals...)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "error", err)
			return
		}

		printGreetings(instanceProfile)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		<-ctx.Done()
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 8000)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8000, "port of server")
	rootCmd.PersistentFlags().String("mongo-uri", "", "mongodb connection uri")
	rootCmd.PersistentFlags().String("report-url", "", "endpoint that receives match reports")
	rootCmd.PersistentFlags().String("inference-url", "", "base url of the face inference service")
	rootCmd.PersistentFlags().String("cameras", "", "comma-separated camera stream urls")
	rootCmd.PersistentFlags().Float64("match-threshold", 0.5, "cosine similarity required for a live camera match")
	rootCmd.PersistentFlags().Float64("verify-threshold", 0.6, "cosine similarity required for enrollment and resolve checks")
	rootCmd.PersistentFlags().Float64("duplicate-threshold", 0.7, "cosine similarity above which an enrollment is a duplicate")
	rootCmd.PersistentFlags().Int("detection-interval", 10, "run detection every N frames")
	rootCmd.PersistentFlags().Int("max-image-size", 800, "longest side of uploaded images after downscaling")

	for _, name := range []string{
		"mode", "addr", "port", "mongo-uri", "report-url", "inference-url",
		"cameras", "match-threshold", "verify-threshold", "duplicate-threshold",
		"detection-interval", "max-image-size",
	} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("rakshak")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Rakshak %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}

	fmt.Printf("Mode: %s\n", profile.Mode)
	fmt.Printf("Cameras: %d\n", len(profile.Cameras))
	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
