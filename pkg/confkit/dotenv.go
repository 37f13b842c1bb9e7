package confkit

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// LoadDotenvOnce loads a .env file into the process environment. ENV_FILE
// names an explicit file; otherwise .env in the working directory and then
// in the project root are tried. Existing variables win unless
// DOTENV_OVERLOAD=1. NO_DOTENV=1 disables loading.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	for _, path := range dotenvCandidates() {
		if err := loadEnvFile(path); err == nil {
			return
		}
	}
}

func dotenvCandidates() []string {
	if os.Getenv("NO_DOTENV") == "1" {
		return nil
	}
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		return []string{envFile}
	}
	candidates := []string{".env"}
	if root, err := ProjectRoot(); err == nil {
		if p := filepath.Join(root, ".env"); fileExists(p) {
			candidates = append(candidates, p)
		}
	}
	return candidates
}

func loadEnvFile(path string) error {
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		return godotenv.Overload(path)
	}
	return godotenv.Load(path)
}
