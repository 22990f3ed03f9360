package genlog

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// Config controls synthetic log generation.
type Config struct {
	Path    string
	Entries int
	Seed    int64
	// Start is the timestamp of the first entry; zero means seven days
	// ago.
	Start time.Time
}

var (
	normalIPs = []string{
		"192.168.1.10", "192.168.1.15", "192.168.1.20",
		"10.0.0.5", "10.0.0.8", "172.16.0.100", "172.20.1.50",
	}
	attackerIPs = []string{
		"45.142.212.61", "103.75.201.12", "185.220.101.45",
	}
	suspiciousIPs = []string{
		"91.108.56.190", "196.201.233.45", "41.60.232.191",
	}
	normalUsers = []string{"admin", "johndoe", "janesmith", "devops", "support", "backup"}
	attackUsers = []string{"root", "admin", "user", "test", "oracle", "postgres", "mysql"}
)

// Generate writes a synthetic SSH auth log containing normal traffic,
// brute force bursts, vulnerable account probes, out-of-region access
// and one breach sequence. Every line matches the parser grammar, so
// a generated file reparses at 100%.
func Generate(cfg Config) error {
	if cfg.Entries <= 0 {
		cfg.Entries = 5000
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now().AddDate(0, 0, -7)
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(cfg.Seed))
	w := bufio.NewWriter(f)

	breachAt := cfg.Entries / 2
	for i := 0; i < cfg.Entries; i++ {
		ts := cfg.Start.Add(time.Duration(i*10+rng.Intn(30)) * time.Second)

		if i == breachAt {
			writeBreachSequence(w, rng, ts)
			continue
		}

		switch roll := rng.Intn(100); {
		case roll < 55:
			writeLine(w, ts, "Accepted", pick(rng, normalUsers), pick(rng, normalIPs), rng)
		case roll < 75:
			// Brute force burst: several rapid failures from one attacker.
			ip := pick(rng, attackerIPs)
			user := pick(rng, attackUsers)
			for b := 0; b < 3+rng.Intn(5); b++ {
				writeLine(w, ts.Add(time.Duration(b)*time.Second), "Failed", user, ip, rng)
			}
		case roll < 90:
			writeLine(w, ts, "Failed", pick(rng, attackUsers), pick(rng, suspiciousIPs), rng)
		default:
			writeLine(w, ts, "Failed", pick(rng, normalUsers), pick(rng, normalIPs), rng)
		}
	}

	return w.Flush()
}

// writeBreachSequence emits a long failure run ending in a success.
func writeBreachSequence(w *bufio.Writer, rng *rand.Rand, ts time.Time) {
	ip := attackerIPs[0]
	user := "root"
	for b := 0; b < 25; b++ {
		writeLine(w, ts.Add(time.Duration(b*2)*time.Second), "Failed", user, ip, rng)
	}
	writeLine(w, ts.Add(52*time.Second), "Accepted", user, ip, rng)
}

func writeLine(w *bufio.Writer, ts time.Time, status, user, ip string, rng *rand.Rand) {
	fmt.Fprintf(w, "%s server sshd[%d]: %s password for %s from %s port %d ssh2\n",
		ts.Format("Jan _2 15:04:05"), 1000+rng.Intn(9000), status, user, ip, 1024+rng.Intn(64000))
}

func pick(rng *rand.Rand, items []string) string {
	return items[rng.Intn(len(items))]
}
