package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"foodanalyzer/internal/config"
	"foodanalyzer/internal/imaging"
	"foodanalyzer/internal/logger"
	"foodanalyzer/internal/repository/sqlite"
	"foodanalyzer/internal/services/vision"

	"github.com/joho/godotenv"
)

// Self-test for the Food Safety Analyzer setup: verifies configuration,
// image processing, the database and live API connectivity. Exits 0 only
// when every check passes.

func main() {
	skipNetwork := flag.Bool("skip-network", false, "Skip the live API connectivity check")
	flag.Parse()

	fmt.Println("🍎 Food Safety Analyzer - Setup Test")
	fmt.Println("========================================")

	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️  No .env file found, using process environment")
	}

	cfg := config.Load()

	checks := []struct {
		name string
		run  func(*config.Config) error
	}{
		{"environment configuration", checkEnvironment},
		{"image processing", checkImageProcessing},
		{"database", checkDatabase},
	}
	if !*skipNetwork {
		checks = append(checks, struct {
			name string
			run  func(*config.Config) error
		}{"API connectivity", checkConnectivity})
	}

	passed := 0
	for _, check := range checks {
		fmt.Printf("\n🔍 Testing %s...\n", check.name)
		if err := check.run(cfg); err != nil {
			fmt.Printf("❌ %s failed: %v\n", check.name, err)
			continue
		}
		fmt.Printf("✅ %s looks good!\n", check.name)
		passed++
	}

	fmt.Println("\n========================================")
	fmt.Println("📊 Test Results:")

	if passed == len(checks) {
		fmt.Printf("✅ All tests passed! (%d/%d)\n", passed, len(checks))
		fmt.Println("\n🚀 You're ready to run the server!")
		os.Exit(0)
	}

	fmt.Printf("❌ Some tests failed: %d/%d passed\n", passed, len(checks))
	fmt.Println("\n🔧 Please fix the issues above before running the server.")
	os.Exit(1)
}

// checkEnvironment verifies the API key is present and plausible.
func checkEnvironment(cfg *config.Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY not found in environment or .env file")
	}
	if !strings.HasPrefix(cfg.APIKey, "sk-or-v1-") {
		fmt.Println("⚠️  Warning: API key doesn't start with 'sk-or-v1-'. Please verify it's correct.")
	}
	return nil
}

// checkImageProcessing runs a small image through the normalize pipeline and
// verifies the result decodes back as a bounded JPEG.
func checkImageProcessing(cfg *config.Config) error {
	src := image.NewRGBA(image.Rect(0, 0, 2048, 1536))
	for y := 0; y < 1536; y += 8 {
		for x := 0; x < 2048; x += 8 {
			src.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}

	data, err := imaging.Normalize(src)
	if err != nil {
		return fmt.Errorf("normalize failed: %w", err)
	}

	roundTrip, err := imaging.DecodeDataURI(imaging.EncodeDataURI(data))
	if err != nil {
		return fmt.Errorf("data URI round-trip failed: %w", err)
	}

	img, err := imaging.Decode(roundTrip)
	if err != nil {
		return fmt.Errorf("normalized payload does not decode: %w", err)
	}

	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w > imaging.MaxDimension || h > imaging.MaxDimension {
		return fmt.Errorf("normalized image is %dx%d, exceeds %d bound", w, h, imaging.MaxDimension)
	}

	return nil
}

// checkDatabase opens (and migrates) the configured SQLite database.
func checkDatabase(cfg *config.Config) error {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return fmt.Errorf("cannot create database directory: %w", err)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	return db.Close()
}

// checkConnectivity performs a minimal live request against the check model.
func checkConnectivity(cfg *config.Config) error {
	log := logger.NewLogger(cfg)
	client := vision.NewClient(cfg, nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return client.Ping(ctx)
}
