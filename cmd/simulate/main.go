package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dgrieve/ironlance/internal/config"
	"github.com/dgrieve/ironlance/internal/db"
	"github.com/dgrieve/ironlance/internal/engine"
	"github.com/dgrieve/ironlance/internal/hexmap"
	"github.com/dgrieve/ironlance/internal/replay"
	"github.com/dgrieve/ironlance/internal/store"
)

// ─── Constants ──────────────────────────────────────────────────────────────

const (
	kFactor = 3.5
)

// ─── Built-in baseline ──────────────────────────────────────────────────────

// baselineSpec is the yardstick every template fights against. Ratings are
// relative: a template that beats the baseline faster than the baseline
// beats it scores above 5.
func baselineSpec() engine.UnitSpec {
	return engine.UnitSpec{
		ID:       "baseline",
		Name:     "Baseline Trooper",
		Tonnage:  50,
		Armor:    160,
		HeatCap:  30,
		WalkMP:   4,
		JumpMP:   0,
		Gunnery:  4,
		Piloting: 5,
		Weapons: []engine.WeaponSpec{
			{Name: "Medium Laser", Damage: 5, Heat: 3, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: engine.UnlimitedAmmo},
			{Name: "Medium Laser", Damage: 5, Heat: 3, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: engine.UnlimitedAmmo},
			{Name: "Autocannon/10", Damage: 10, Heat: 3, ShortRange: 5, MediumRange: 10, LongRange: 15, Ammo: 20},
		},
	}
}

// builtinTemplates covers runs without a Postgres template store.
func builtinTemplates() []db.Template {
	return []db.Template{
		{ID: 1, Spec: engine.UnitSpec{
			ID: "tpl-1", Name: "Scout", Tonnage: 25, Armor: 80, HeatCap: 20,
			WalkMP: 8, JumpMP: 8, Gunnery: 4, Piloting: 4,
			Weapons: []engine.WeaponSpec{
				{Name: "Medium Laser", Damage: 5, Heat: 3, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: engine.UnlimitedAmmo},
			},
		}},
		{ID: 2, Spec: engine.UnitSpec{
			ID: "tpl-2", Name: "Brawler", Tonnage: 70, Armor: 220, HeatCap: 34,
			WalkMP: 3, JumpMP: 0, Gunnery: 4, Piloting: 5,
			Weapons: []engine.WeaponSpec{
				{Name: "Autocannon/20", Damage: 20, Heat: 7, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: 10},
				{Name: "Medium Laser", Damage: 5, Heat: 3, ShortRange: 3, MediumRange: 6, LongRange: 9, Ammo: engine.UnlimitedAmmo},
			},
		}},
		{ID: 3, Spec: engine.UnitSpec{
			ID: "tpl-3", Name: "Sniper", Tonnage: 60, Armor: 180, HeatCap: 40,
			WalkMP: 4, JumpMP: 0, Gunnery: 3, Piloting: 5,
			Weapons: []engine.WeaponSpec{
				{Name: "PPC", Damage: 10, Heat: 10, ShortRange: 6, MediumRange: 12, LongRange: 18, Ammo: engine.UnlimitedAmmo},
				{Name: "Large Laser", Damage: 8, Heat: 8, ShortRange: 5, MediumRange: 10, LongRange: 15, Ammo: engine.UnlimitedAmmo},
			},
		}},
		{ID: 4, Spec: engine.UnitSpec{
			ID: "tpl-4", Name: "Missile Boat", Tonnage: 65, Armor: 190, HeatCap: 36,
			WalkMP: 4, JumpMP: 0, Gunnery: 4, Piloting: 5,
			Weapons: []engine.WeaponSpec{
				{Name: "LRM 20", Damage: 12, Heat: 6, ShortRange: 7, MediumRange: 14, LongRange: 21, Ammo: 12},
				{Name: "LRM 20", Damage: 12, Heat: 6, ShortRange: 7, MediumRange: 14, LongRange: 21, Ammo: 12},
			},
		}},
	}
}

// ─── Scripted player driver ─────────────────────────────────────────────────
// The batch sim drives the player side through the same public orders the
// HTTP API exposes: close to weapon range, shoot the nearest enemy, end
// the turn. The enemy side runs on the session's own controller.

func playGame(sess *engine.Session, rec *replay.Recorder) {
	for {
		if done, _ := sess.Resolved(); done {
			rec.Observe(sess)
			return
		}
		err := sess.Advance()
		rec.Observe(sess)
		if err == engine.ErrResolved {
			return
		}
		if err == engine.ErrAwaitingOrders {
			playerTurn(sess)
			rec.Observe(sess)
		}
	}
}

func playerTurn(sess *engine.Session) {
	id := sess.ActiveUnitID()
	var actor *engine.Unit
	for _, u := range sess.Units() {
		if u.ID == id {
			actor = u
			break
		}
	}
	if actor == nil {
		return
	}

	if tgt := nearestEnemy(sess, actor); tgt != nil {
		if dest, ok := closingHex(sess, actor, tgt); ok {
			_ = sess.AttemptMove(id, dest)
		} else {
			_ = sess.SkipMove(id)
		}
		_ = sess.AttemptAttack(id, tgt.ID)
	}
	if done, _ := sess.Resolved(); done {
		return
	}
	_ = sess.EndTurn(id)
}

func nearestEnemy(sess *engine.Session, actor *engine.Unit) *engine.Unit {
	var best *engine.Unit
	bestDist := 0
	for _, u := range sess.Units() {
		if u.Side == actor.Side || !u.Alive() {
			continue
		}
		d := hexmap.Distance(actor.Pos, u.Pos)
		if best == nil || d < bestDist {
			best = u
			bestDist = d
		}
	}
	return best
}

// closingHex picks the reachable hex nearest the target, breaking ties in
// scan order. Returns false when staying put is already best.
func closingHex(sess *engine.Session, actor *engine.Unit, tgt *engine.Unit) (hexmap.Hex, bool) {
	reachable, err := sess.Reachable(actor.ID)
	if err != nil {
		return hexmap.Hex{}, false
	}
	best := actor.Pos
	bestDist := hexmap.Distance(actor.Pos, tgt.Pos)
	for _, h := range reachable {
		if d := hexmap.Distance(h, tgt.Pos); d < bestDist {
			best = h
			bestDist = d
		}
	}
	if best == actor.Pos {
		return hexmap.Hex{}, false
	}
	return best, true
}

// ─── Batch runs ─────────────────────────────────────────────────────────────

type runConfig struct {
	mapRadius int
	maxRounds int
	games     int
	seed      uint64
}

// runBatch plays games between attacker (player side) and defender (enemy
// side) and returns the median rounds to resolution. Each game gets its
// own derived seed so batches are reproducible.
func runBatch(rc runConfig, attacker, defender engine.UnitSpec, logger zerolog.Logger) float64 {
	rounds := make([]int, 0, rc.games)
	for g := 0; g < rc.games; g++ {
		sess := engine.New(engine.Config{
			MapRadius: rc.mapRadius,
			MaxRounds: rc.maxRounds,
			Seed:      rc.seed + uint64(g)*7919,
			Logger:    logger,
		}, []engine.UnitSpec{attacker}, []engine.UnitSpec{defender})
		rec := replay.NewRecorder(sess)
		playGame(sess, rec)
		res, err := sess.Result()
		if err != nil {
			continue
		}
		rounds = append(rounds, res.RoundsElapsed)
	}
	return median(rounds, rc.maxRounds)
}

func median(xs []int, fallback int) float64 {
	n := len(xs)
	if n == 0 {
		return float64(fallback)
	}
	sort.Ints(xs)
	if n%2 == 0 {
		return float64(xs[n/2-1]+xs[n/2]) / 2.0
	}
	return float64(xs[n/2])
}

// recordReplay replays one deterministic game for the template and stores
// the gzip-compressed replay under the template id.
func recordReplay(rc runConfig, st *store.Store, tpl db.Template, logger zerolog.Logger) error {
	sess := engine.New(engine.Config{
		MapRadius: rc.mapRadius,
		MaxRounds: rc.maxRounds,
		Seed:      rc.seed + uint64(tpl.ID),
		Logger:    logger,
	}, []engine.UnitSpec{tpl.Spec}, []engine.UnitSpec{baselineSpec()})
	rec := replay.NewRecorder(sess)
	playGame(sess, rec)
	data, err := rec.Finish(sess)
	if err != nil {
		return err
	}
	raw, err := data.ToJSON()
	if err != nil {
		return err
	}
	return st.SaveReplay(tpl.Spec.ID, raw)
}

// ─── Main ───────────────────────────────────────────────────────────────────

type templateResult struct {
	id      int
	name    string
	offense float64
	defense float64
	score   float64
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(zerolog.WarnLevel)

	if err := config.Load("."); err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	filter := flag.String("filter", "", "Comma-separated template name substrings to rate")
	games := flag.Int("games", config.GetInt("sim.gamesPerTemplate"), "Games per template per role")
	seed := flag.Uint64("seed", config.GetUint64("sim.seed"), "Base RNG seed")
	mapRadius := flag.Int("map-radius", config.GetInt("sim.mapRadius"), "Battlefield radius in hexes")
	maxRounds := flag.Int("max-rounds", config.GetInt("sim.maxRounds"), "Round limit before a fight is abandoned")
	pgDSN := flag.String("pg", config.GetString("postgresDSN"), "Postgres DSN for the template store (empty = built-in roster)")
	sqlitePath := flag.String("db", config.GetString("sqlitePath"), "SQLite path for stored replays")
	limit := flag.Int("limit", 0, "Limit number of templates to rate (0=all)")
	dryRun := flag.Bool("dry-run", false, "Rate templates without writing results back")
	flag.Parse()

	rc := runConfig{
		mapRadius: *mapRadius,
		maxRounds: *maxRounds,
		games:     *games,
		seed:      *seed,
	}

	ctx := context.Background()

	var pool *pgxpool.Pool
	var templates []db.Template
	if *pgDSN != "" {
		var err error
		pool, err = db.Connect(ctx, *pgDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect template store")
		}
		defer pool.Close()
		templates, err = db.LoadTemplates(ctx, pool, *filter)
		if err != nil {
			logger.Fatal().Err(err).Msg("load templates")
		}
	} else {
		templates = builtinTemplates()
	}
	if *limit > 0 && *limit < len(templates) {
		templates = templates[:*limit]
	}
	if len(templates) == 0 {
		logger.Fatal().Msg("no templates to rate")
	}

	st, err := store.Open(*sqlitePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open replay store")
	}
	defer st.Close()

	fmt.Printf("Rating %d templates (%d games per role, seed %d)\n", len(templates), rc.games, rc.seed)

	// Baseline vs itself anchors the rating scale at 5.
	baseline := baselineSpec()
	baselineOffense := runBatch(rc, baseline, baseline, logger)
	baselineDefense := runBatch(rc, baseline, baseline, logger)
	baselineRatio := baselineDefense / baselineOffense
	if baselineRatio == 0 {
		baselineRatio = 1.0
	}
	fmt.Printf("Baseline: offense=%.1f defense=%.1f ratio=%.3f\n",
		baselineOffense, baselineDefense, baselineRatio)

	numWorkers := runtime.NumCPU()
	jobs := make(chan int, len(templates))
	results := make(chan templateResult, len(templates))

	var processed atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				tpl := templates[idx]

				offRounds := runBatch(rc, tpl.Spec, baseline, logger)
				defRounds := runBatch(rc, baseline, tpl.Spec, logger)

				ratio := defRounds / offRounds
				score := 5.0 + kFactor*math.Log(ratio/baselineRatio)
				if score < 1 {
					score = 1
				}
				if score > 10 {
					score = 10
				}

				if err := recordReplay(rc, st, tpl, logger); err != nil {
					logger.Warn().Err(err).Str("template", tpl.Spec.Name).Msg("replay not stored")
				}

				results <- templateResult{tpl.ID, tpl.Spec.Name, offRounds, defRounds, score}

				n := processed.Add(1)
				if n%25 == 0 {
					fmt.Printf("  [%d/%d] rated\n", n, len(templates))
				}
			}
		}()
	}

	for i := range templates {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []templateResult
	updated := 0
	for r := range results {
		all = append(all, r)
		if pool != nil && !*dryRun {
			if err := db.UpdateRating(ctx, pool, r.id, r.score, r.offense, r.defense); err != nil {
				logger.Error().Err(err).Int("template", r.id).Msg("write rating")
				continue
			}
			updated++
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })

	fmt.Printf("\n%-25s %8s %8s %6s\n", "Template", "Offense", "Defense", "Rating")
	for _, r := range all {
		fmt.Printf("%-25s %8.1f %8.1f %6.2f\n", r.name, r.offense, r.defense, r.score)
	}
	if pool != nil && !*dryRun {
		fmt.Printf("\nUpdated %d templates\n", updated)
	}
}
