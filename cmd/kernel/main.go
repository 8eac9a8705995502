// Command kernel is the operator console for a running sarakt daemon. It
// reads universe state and issues admin actions over the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/talgya/sarakt/internal/client"
)

const usage = `usage: kernel [flags] <command> [args]

read:
  status                               universe summary
  planets                              list bodies
  planet <id|name>                     body details
  resources <id|name>                  resource stocks
  cities                               list settlements
  city <id|name>                       settlement report
  plots <city> [owner]                 list plots (first 50)
  npcs [all|child|developing|mature|loyal]
  npc <id>                             actor details
  factions                             list factions
  events [n]                           newest events

admin (needs -key):
  claim <player> <plot>                claim and mint a capital plot
  build <player> <plot> <structure>    build on an owned plot
  develop <city> <plot> <structure> <owner>
  infra <city> <facility>              build or upgrade a facility
  extract <player> <body> <resource> <amount>
  spawn <player> <body>                spawn and mint an actor
  interact <npc> <player> <type> [quality]
  faction <leader> <name>              found a faction
  join <faction> <npc>                 enroll an actor
  cycle [n]                            advance n cycles (default 1)
  pause | resume                       stop or resume automatic cycles
  save                                 write world state to the database
  snapshot                             write a compressed snapshot
`

func main() {
	godotenv.Load()

	fs := flag.NewFlagSet("kernel", flag.ExitOnError)
	apiURL := fs.String("url", envOrDefault("SARAKT_API_URL", "http://localhost:8080"), "daemon API base URL")
	adminKey := fs.String("key", os.Getenv("SARAKT_ADMIN_KEY"), "admin bearer key")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage, "\nflags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	k := &kernel{c: client.New(*apiURL, *adminKey), out: os.Stdout}
	if err := k.run(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(os.Stderr, "usage: kernel %s\n", string(ue))
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

type kernel struct {
	c   *client.Client
	out io.Writer
}

func (k *kernel) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "status":
		return k.status(ctx)
	case "planets":
		return k.planets(ctx)
	case "planet":
		if len(args) != 1 {
			return usageError("planet <id|name>")
		}
		return k.planet(ctx, args[0])
	case "resources":
		if len(args) != 1 {
			return usageError("resources <id|name>")
		}
		return k.resources(ctx, args[0])
	case "cities":
		return k.cities(ctx)
	case "city":
		if len(args) != 1 {
			return usageError("city <id|name>")
		}
		return k.city(ctx, args[0])
	case "plots":
		if len(args) < 1 || len(args) > 2 {
			return usageError("plots <city> [owner]")
		}
		owner := ""
		if len(args) == 2 {
			owner = args[1]
		}
		return k.plots(ctx, args[0], owner)
	case "npcs":
		filter := "all"
		if len(args) > 0 {
			filter = args[0]
		}
		return k.npcs(ctx, filter)
	case "npc":
		if len(args) != 1 {
			return usageError("npc <id>")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return usageError("npc <id>")
		}
		return k.npc(ctx, id)
	case "factions":
		return k.factions(ctx)
	case "events":
		n := 20
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v <= 0 {
				return usageError("events [n]")
			}
			n = v
		}
		return k.events(ctx, n)
	default:
		return k.admin(ctx, cmd, args)
	}
}

func (k *kernel) admin(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "claim":
		var plot int
		if len(args) != 2 || !atoi(args[1], &plot) {
			return usageError("claim <player> <plot>")
		}
		res, err := k.c.ClaimPlot(ctx, args[0], plot)
		if err != nil {
			return err
		}
		fmt.Fprintf(k.out, "plot %d (%s) claimed by %s\n", res.Plot.ID, res.Plot.Zone, res.Plot.Owner)
		fmt.Fprintf(k.out, "token %d  ref %s\n", res.Receipt.TokenID, res.Receipt.Ref)
	case "build":
		var plot int
		if len(args) != 3 || !atoi(args[1], &plot) {
			return usageError("build <player> <plot> <structure>")
		}
		res, err := k.c.BuildOnPlot(ctx, args[0], plot, structureName(args[2]))
		if err != nil {
			return err
		}
		fmt.Fprintf(k.out, "%s built on plot %d (net value %d)\n", res.Plot.Structure, res.Plot.ID, res.Plot.NetValue)
		fmt.Fprintf(k.out, "ref %s\n", res.Receipt.Ref)
	case "develop":
		var plot int
		if len(args) != 4 || !atoi(args[1], &plot) {
			return usageError("develop <city> <plot> <structure> <owner>")
		}
		p, err := k.c.DevelopPlot(ctx, args[0], plot, structureName(args[2]), args[3])
		if err != nil {
			return err
		}
		fmt.Fprintf(k.out, "%s built on plot %d for %s\n", p.Structure, p.ID, p.Owner)
	case "infra":
		if len(args) != 2 {
			return usageError("infra <city> <facility>")
		}
		f, err := k.c.BuildInfrastructure(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if f.Graded {
			fmt.Fprintf(k.out, "%s now level %d, coverage %.0f%%\n", f.Name, f.Level, f.Coverage*100)
		} else {
			fmt.Fprintf(k.out, "%s built (capacity %s)\n", f.Name, humanize.Comma(int64(f.Capacity)))
		}
	case "extract":
		var body int
		if len(args) != 4 || !atoi(args[1], &body) {
			return usageError("extract <player> <body> <resource> <amount>")
		}
		amount, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return usageError("extract <player> <body> <resource> <amount>")
		}
		res, err := k.c.Extract(ctx, args[0], body, args[2], amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(k.out, "extracted %s %s from body %d\n", humanize.Comma(res.Extracted), args[2], body)
	case "spawn":
		var body int
		if len(args) != 2 || !atoi(args[1], &body) {
			return usageError("spawn <player> <body>")
		}
		res, err := k.c.Spawn(ctx, args[0], body)
		if err != nil {
			return err
		}
		fmt.Fprintf(k.out, "spawned #%d %s on body %d (seed %d)\n", res.ActorID, res.Name, res.BodyID, res.Seed)
		fmt.Fprintf(k.out, "token %d  ref %s\n", res.Receipt.TokenID, res.Receipt.Ref)
	case "interact":
		var id int
		if len(args) < 3 || len(args) > 4 || !atoi(args[0], &id) {
			return usageError("interact <npc> <player> <type> [quality]")
		}
		quality := 1.0
		if len(args) == 4 {
			q, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return usageError("interact <npc> <player> <type> [quality]")
			}
			quality = q
		}
		res, err := k.c.Interact(ctx, id, args[1], args[2], quality)
		if err != nil {
			return err
		}
		fmt.Fprintf(k.out, "loyalty %.1f -> %.1f/100 (%s)\n", res.Previous, res.Loyalty, res.State)
		if res.BecameLoyal {
			fmt.Fprintf(k.out, "#%d has joined %s\n", id, args[1])
		}
	case "faction":
		if len(args) != 2 {
			return usageError("faction <leader> <name>")
		}
		res, err := k.c.CreateFaction(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(k.out, "faction %d %q founded by %s (token %d)\n", res.Faction.ID, res.Faction.Name, res.Faction.LeaderID, res.Receipt.TokenID)
	case "join":
		var fid, aid int
		if len(args) != 2 || !atoi(args[0], &fid) || !atoi(args[1], &aid) {
			return usageError("join <faction> <npc>")
		}
		f, err := k.c.JoinFaction(ctx, fid, aid)
		if err != nil {
			return err
		}
		fmt.Fprintf(k.out, "%s now has %d members\n", f.Name, len(f.Members))
	case "cycle":
		n := 1
		if len(args) > 0 && !atoi(args[0], &n) {
			return usageError("cycle [n]")
		}
		reports, err := k.c.AdvanceCycles(ctx, n)
		if err != nil {
			return err
		}
		developing, matured := 0, 0
		for _, r := range reports {
			developing += r.Developing
			matured += r.Matured
		}
		last := uint64(0)
		if len(reports) > 0 {
			last = reports[len(reports)-1].Cycle
		}
		fmt.Fprintf(k.out, "advanced %s cycles, now at cycle %s\n", humanize.Comma(int64(len(reports))), humanize.Comma(int64(last)))
		fmt.Fprintf(k.out, "%d actors started developing, %d matured\n", developing, matured)
	case "pause", "resume":
		if err := k.c.SetPaused(ctx, cmd == "pause"); err != nil {
			return err
		}
		fmt.Fprintf(k.out, "engine %sd\n", cmd)
	case "save":
		if err := k.c.Save(ctx); err != nil {
			return err
		}
		fmt.Fprintln(k.out, "world state saved")
	case "snapshot":
		path, err := k.c.Snapshot(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(k.out, "snapshot written to", path)
	default:
		return usageError("<command> [args]; run with -h for the command list")
	}
	return nil
}

func (k *kernel) status(ctx context.Context) error {
	st, err := k.c.Status(ctx)
	if err != nil {
		return err
	}
	tw := k.table()
	fmt.Fprintf(tw, "Universe\t%s (seed %d)\n", st.Name, st.Seed)
	fmt.Fprintf(tw, "Cycle\t%s\n", humanize.Comma(int64(st.Cycle)))
	fmt.Fprintf(tw, "Bodies\t%d (%d habitable)\n", st.Bodies, st.HabitableBodies)
	fmt.Fprintf(tw, "Settlements\t%d\n", st.Settlements)
	fmt.Fprintf(tw, "Actors\t%s (%d mature, %d loyal)\n", humanize.Comma(int64(st.Actors)), st.MatureActors, st.LoyalActors)
	fmt.Fprintf(tw, "Factions\t%d\n", st.Factions)
	if st.Paused {
		fmt.Fprintf(tw, "Engine\tpaused\n")
	}
	return tw.Flush()
}

func (k *kernel) planets(ctx context.Context) error {
	bodies, err := k.c.Bodies(ctx)
	if err != nil {
		return err
	}
	tw := k.table()
	fmt.Fprintln(tw, "ID\tNAME\tCLASS\tHABITABLE\tHAZARDS")
	for _, b := range bodies {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", b.ID, b.Name, b.Class, yesNo(b.Habitable), b.Hazards)
	}
	return tw.Flush()
}

func (k *kernel) planet(ctx context.Context, ref string) error {
	b, err := k.c.Body(ctx, ref)
	if err != nil {
		return err
	}
	p := b.Properties
	tw := k.table()
	fmt.Fprintf(tw, "Planet\t%s (#%d)\n", b.Name, b.ID)
	fmt.Fprintf(tw, "Class\t%s\n", b.Class)
	fmt.Fprintf(tw, "Habitable\t%s\n", yesNo(b.Habitable))
	fmt.Fprintf(tw, "Seed\t%d\n", b.Seed)
	fmt.Fprintf(tw, "Radius\t%s km\n", humanize.Comma(int64(p.RadiusKm)))
	fmt.Fprintf(tw, "Gravity\t%.2fg\n", p.Gravity)
	fmt.Fprintf(tw, "Atmosphere\t%s\n", p.Atmosphere)
	fmt.Fprintf(tw, "Temperature\t%d°C\n", p.TemperatureC)
	fmt.Fprintf(tw, "Water\t%.1f%%\n", p.WaterCoverage*100)
	fmt.Fprintf(tw, "Biomes\t%d\n", len(b.Biomes))
	for _, bm := range b.Biomes {
		fmt.Fprintf(tw, "\t%s (%.0f%%)\n", bm.Type, bm.Coverage*100)
	}
	fmt.Fprintf(tw, "Regions\t%d\n", len(b.Regions))
	fmt.Fprintf(tw, "Hazards\t%d (%d active)\n", len(b.Hazards), len(b.ActiveHazards()))
	return tw.Flush()
}

func (k *kernel) resources(ctx context.Context, ref string) error {
	res, err := k.c.Resources(ctx, ref)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(k.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, r := range res {
		fmt.Fprintf(tw, "%s\t%s\t\n", r.Name, humanize.Comma(r.Amount))
	}
	return tw.Flush()
}

func (k *kernel) cities(ctx context.Context) error {
	list, err := k.c.Settlements(ctx)
	if err != nil {
		return err
	}
	for _, s := range list {
		st, err := k.c.SettlementStats(ctx, strconv.Itoa(s.ID))
		if err != nil {
			return err
		}
		fmt.Fprintf(k.out, "[%d] %s\n", s.ID, s.Name)
		fmt.Fprintf(k.out, "     plots: %s/%s (%.1f%%)\n", humanize.Comma(int64(st.DevelopedPlots)),
			humanize.Comma(int64(st.TotalPlots)), st.DevelopmentPercent)
		fmt.Fprintf(k.out, "     population: %s\n\n", humanize.Comma(int64(st.Population)))
	}
	return nil
}

func (k *kernel) city(ctx context.Context, ref string) error {
	st, err := k.c.SettlementStats(ctx, ref)
	if err != nil {
		return err
	}
	tw := k.table()
	fmt.Fprintf(tw, "City\t%s\n", st.Name)
	fmt.Fprintf(tw, "Development\t%s/%s plots (%.1f%%)\n", humanize.Comma(int64(st.DevelopedPlots)),
		humanize.Comma(int64(st.TotalPlots)), st.DevelopmentPercent)
	fmt.Fprintf(tw, "Population\t%s\n", humanize.Comma(int64(st.Population)))
	fmt.Fprintf(tw, "GDP\t%s xBGL\n", humanize.Comma(st.GDP))
	fmt.Fprintf(tw, "Employment\t%s\n", humanize.Ftoa(st.Employment))
	fmt.Fprintf(tw, "Unemployment\t%s\n", humanize.Ftoa(st.Unemployment))
	fmt.Fprintln(tw, "Infrastructure\t")
	for _, f := range st.Infrastructure {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Name, f.Status, f.Coverage)
	}
	return tw.Flush()
}

func (k *kernel) plots(ctx context.Context, city, owner string) error {
	p, err := k.c.Plots(ctx, city, client.ListOptions{Owner: owner, Limit: 50})
	if err != nil {
		return err
	}
	tw := k.table()
	fmt.Fprintln(tw, "PLOT\tZONE\tSTRUCTURE\tOWNER\tTOKEN")
	for _, pl := range p.Items {
		token := "-"
		if pl.TokenID != nil {
			token = strconv.FormatUint(*pl.TokenID, 10)
		}
		owner := pl.Owner
		if owner == "" {
			owner = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", pl.ID, pl.Zone, pl.Structure, owner, token)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if rest := p.Total - len(p.Items); rest > 0 {
		fmt.Fprintf(k.out, "... and %s more\n", humanize.Comma(int64(rest)))
	}
	return nil
}

func (k *kernel) npcs(ctx context.Context, filter string) error {
	opts := client.ListOptions{Limit: 20}
	switch filter {
	case "all":
	case "child", "developing", "mature", "loyal":
		opts.State = filter
	default:
		return usageError("npcs [all|child|developing|mature|loyal]")
	}
	p, err := k.c.Actors(ctx, opts)
	if err != nil {
		return err
	}
	tw := k.table()
	for _, a := range p.Items {
		state := string(a.State)
		if a.JoinedPlayer != "" {
			state += " -> " + a.JoinedPlayer
		}
		fmt.Fprintf(tw, "[%d]\t%s\tage %d\t%s\n", a.ID, a.Name, a.Age, state)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if rest := p.Total - len(p.Items); rest > 0 {
		fmt.Fprintf(k.out, "... and %s more\n", humanize.Comma(int64(rest)))
	}
	return nil
}

func (k *kernel) npc(ctx context.Context, id int) error {
	a, err := k.c.Actor(ctx, id)
	if err != nil {
		return err
	}
	tw := k.table()
	fmt.Fprintf(tw, "NPC\t%s (#%d)\n", a.Name, a.ID)
	fmt.Fprintf(tw, "Age\t%d\n", a.Age)
	fmt.Fprintf(tw, "State\t%s\n", a.State)
	fmt.Fprintf(tw, "Heritage\t%s, generation %d\n", a.Heritage, a.Generation)
	fmt.Fprintln(tw, "Attributes\t")
	attrs := a.Attributes
	for _, row := range []struct {
		name string
		v    int
	}{
		{"strength", attrs.Strength},
		{"intelligence", attrs.Intelligence},
		{"charisma", attrs.Charisma},
		{"endurance", attrs.Endurance},
		{"agility", attrs.Agility},
	} {
		fmt.Fprintf(tw, "  %s\t%d/10\n", row.name, row.v)
	}
	if len(a.Personality) > 0 {
		fmt.Fprintln(tw, "Personality\t")
		for _, trait := range sortedKeys(a.Personality) {
			v := a.Personality[trait]
			fmt.Fprintf(tw, "  %s\t%s %.0f%%\n", trait, bar(v, 10), v*100)
		}
	}
	if len(a.TopSkills) > 0 {
		fmt.Fprintln(tw, "Top skills\t")
		for _, s := range a.TopSkills {
			fmt.Fprintf(tw, "  %s\t%.1f\n", s.Skill, s.Level)
		}
	}
	if len(a.Loyalty) > 0 {
		fmt.Fprintln(tw, "Loyalty\t")
		for _, l := range a.Loyalty {
			fmt.Fprintf(tw, "  %s\t%.1f/100\n", l.Player, l.Loyalty)
		}
	}
	return tw.Flush()
}

func (k *kernel) factions(ctx context.Context) error {
	list, err := k.c.Factions(ctx)
	if err != nil {
		return err
	}
	tw := k.table()
	fmt.Fprintln(tw, "ID\tNAME\tLEADER\tMEMBERS\tFOUNDED")
	for _, f := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\tcycle %d\n", f.ID, f.Name, f.LeaderID, len(f.Members), f.Founded)
	}
	return tw.Flush()
}

func (k *kernel) events(ctx context.Context, n int) error {
	list, err := k.c.Events(ctx, 0, n)
	if err != nil {
		return err
	}
	tw := k.table()
	for _, e := range list {
		fmt.Fprintf(tw, "#%d\tcycle %d\t%s\t%s\n", e.Seq, e.Cycle, e.Category, e.Description)
	}
	return tw.Flush()
}

func (k *kernel) table() *tabwriter.Writer {
	return tabwriter.NewWriter(k.out, 0, 4, 2, ' ', 0)
}

func atoi(s string, dst *int) bool {
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	*dst = n
	return true
}

// structureName accepts "Stone-House" for stone_house.
func structureName(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "-", "_")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// bar renders v in [0,1] as a fixed-width gauge.
func bar(v float64, width int) string {
	filled := int(v*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
