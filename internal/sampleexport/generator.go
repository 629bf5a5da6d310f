package sampleexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Export is one rider's generated transit history.
type Export struct {
	RiderID        string
	Profile        string
	Filename       string
	Data           []byte
	Trips          int
	Rows           int
	MissingTapOuts int
	Transfers      int
	// Estimate is the rider's guess of trips per week; zero when absent.
	Estimate int
}

type row struct {
	at          time.Time
	transaction string
	location    string
	journey     time.Time
	amount      string
}

// Generate builds the export of the index-th rider. The same seed and index
// always produce the same rows.
func Generate(cfg *Config, index int) (*Export, error) {
	if cfg.Days <= 0 {
		return nil, fmt.Errorf("generate rider %d: days must be positive", index)
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(index)))
	p := profiles[index%len(profiles)]

	trips := jitter(rng, cfg.TripsPerRider)
	exp := &Export{
		RiderID:  uuid.NewString(),
		Profile:  p.name,
		Filename: fmt.Sprintf("compass-%s-%03d.csv", p.name, index),
	}

	used := make(map[time.Time]struct{}, trips)
	var rows []row
	for i := 0; i < trips; i++ {
		start, ok := pickStart(rng, cfg, p, used)
		if !ok {
			continue
		}
		exp.Trips++
		rows = append(rows, tripRows(rng, start, exp)...)
	}

	if cfg.WithEstimate && exp.Trips > 0 {
		weeks := float64(cfg.Days) / daysPerWeek
		actual := float64(exp.Trips) / weeks
		exp.Estimate = int(math.Max(1, math.Round(actual*(0.5+rng.Float64()))))
	}

	// Exports list the most recent activity first.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].at.After(rows[j].at) })

	data, err := encode(rows)
	if err != nil {
		return nil, fmt.Errorf("generate rider %d: %w", index, err)
	}
	exp.Data = data
	exp.Rows = len(rows)
	return exp, nil
}

// pickStart returns an unused tap-in minute inside the rider's active hours.
func pickStart(rng *rand.Rand, cfg *Config, p profile, used map[time.Time]struct{}) (time.Time, bool) {
	base := cfg.Start
	if base.IsZero() {
		base = defaultStart
	}
	base = time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, time.UTC)

	for attempt := 0; attempt < maxSlotAttempts; attempt++ {
		day := rng.IntN(cfg.Days)
		hour := (p.firstHour + rng.IntN(p.hours)) % 24
		minute := rng.IntN(60)
		start := base.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
		if _, taken := used[start]; taken {
			continue
		}
		used[start] = struct{}{}
		return start, true
	}
	return time.Time{}, false
}

func tripRows(rng *rand.Rand, start time.Time, exp *Export) []row {
	origin := pick(rng, busStops)
	if rng.Float64() < stationOriginRate {
		origin = pick(rng, stations)
	}
	ride := time.Duration(minRideMinutes+rng.IntN(rideMinutesRange)) * time.Minute

	rows := []row{{at: start, transaction: "Tap in at " + origin, location: origin, journey: start, amount: defaultFare}}
	if rng.Float64() < transferRate {
		hub := pick(rng, stations)
		rows = append(rows, row{at: start.Add(ride / 2), transaction: "Transfer at " + hub, location: hub, journey: start, amount: "$0.00"})
		exp.Transfers++
	}
	if rng.Float64() < missingTapOutRate {
		exp.MissingTapOuts++
		return rows
	}
	dest := pick(rng, stations)
	return append(rows, row{at: start.Add(ride), transaction: "Tap out at " + dest, location: dest, journey: start, amount: "$0.00"})
}

func encode(rows []row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, r := range rows {
		rec := []string{
			r.at.Format(dateTimeLayout),
			r.transaction,
			"Stored Value",
			"",
			r.amount,
			"",
			r.journey.Format(journeyIDLayout),
			r.location + "\nStored Value",
			"", "", "", "", "", "",
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// jitter spreads n by ±tripJitter so riders differ in volume.
func jitter(rng *rand.Rand, n int) int {
	if n <= 0 {
		return 0
	}
	spread := int(float64(n) * tripJitter)
	if spread == 0 {
		return n
	}
	return n - spread + rng.IntN(2*spread+1)
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.IntN(len(from))]
}
