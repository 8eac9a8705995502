package persistence

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/sarakt/internal/agents"
	"github.com/talgya/sarakt/internal/engine"
	"github.com/talgya/sarakt/internal/entropy"
	"github.com/talgya/sarakt/internal/social"
	"github.com/talgya/sarakt/internal/world"
)

type bodyRow struct {
	ID         int    `db:"id"`
	Name       string `db:"name"`
	Seed       int64  `db:"seed"`
	Class      string `db:"class"`
	Habitable  bool   `db:"habitable"`
	Properties string `db:"properties_json"`
	Biomes     string `db:"biomes_json"`
	Resources  string `db:"resources_json"`
	Regions    string `db:"regions_json"`
	Hazards    string `db:"hazards_json"`
}

func saveBodies(tx *sqlx.Tx, st engine.State) error {
	if _, err := tx.Exec("DELETE FROM bodies"); err != nil {
		return err
	}
	for _, b := range st.Bodies {
		row := bodyRow{ID: b.ID, Name: b.Name, Seed: b.Seed, Class: string(b.Class), Habitable: b.Habitable}
		var err error
		fields := []struct {
			dst *string
			v   any
		}{
			{&row.Properties, b.Properties},
			{&row.Biomes, b.Biomes},
			{&row.Resources, b.Resources},
			{&row.Regions, b.Regions},
			{&row.Hazards, b.Hazards},
		}
		for _, f := range fields {
			if *f.dst, err = toJSON(f.v); err != nil {
				return fmt.Errorf("body %d: %w", b.ID, err)
			}
		}
		_, err = tx.NamedExec(`INSERT INTO bodies
			(id, name, seed, class, habitable, properties_json, biomes_json,
			 resources_json, regions_json, hazards_json)
			VALUES (:id, :name, :seed, :class, :habitable, :properties_json, :biomes_json,
			 :resources_json, :regions_json, :hazards_json)`, row)
		if err != nil {
			return fmt.Errorf("insert body %d: %w", b.ID, err)
		}
	}
	return nil
}

func (db *DB) loadBodies() ([]*world.Body, error) {
	var rows []bodyRow
	if err := db.conn.Select(&rows, "SELECT * FROM bodies ORDER BY id"); err != nil {
		return nil, err
	}
	bodies := make([]*world.Body, 0, len(rows))
	for _, r := range rows {
		b := &world.Body{ID: r.ID, Name: r.Name, Seed: r.Seed, Class: world.Class(r.Class), Habitable: r.Habitable}
		for _, f := range []struct {
			src string
			dst any
		}{
			{r.Properties, &b.Properties},
			{r.Biomes, &b.Biomes},
			{r.Resources, &b.Resources},
			{r.Regions, &b.Regions},
			{r.Hazards, &b.Hazards},
		} {
			if err := fromJSON(f.src, f.dst); err != nil {
				return nil, fmt.Errorf("body %d: %w", r.ID, err)
			}
		}
		bodies = append(bodies, b)
	}
	return bodies, nil
}

type plotRow struct {
	SettlementID int           `db:"settlement_id"`
	ID           int           `db:"id"`
	Zone         string        `db:"zone"`
	Owner        string        `db:"owner"`
	Structure    string        `db:"structure"`
	NetValue     int           `db:"net_value"`
	Developed    bool          `db:"developed"`
	TokenID      sql.NullInt64 `db:"token_id"`
}

func saveSettlements(tx *sqlx.Tx, st engine.State) error {
	if _, err := tx.Exec("DELETE FROM settlements"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM plots"); err != nil {
		return err
	}

	plotStmt, err := tx.Preparex(`INSERT INTO plots
		(settlement_id, id, zone, owner, structure, net_value, developed, token_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer plotStmt.Close()

	for _, s := range st.Settlements {
		infra, err := toJSON(s.Infrastructure)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT INTO settlements (id, name, body_id, total_plots, infrastructure_json)
			VALUES (?, ?, ?, ?, ?)`, s.ID, s.Name, s.BodyID, s.TotalPlots, infra)
		if err != nil {
			return fmt.Errorf("insert settlement %d: %w", s.ID, err)
		}
		for _, p := range s.Plots {
			_, err := plotStmt.Exec(s.ID, p.ID, string(p.Zone), p.Owner, string(p.Structure),
				p.NetValue, boolInt(p.Developed), tokenParam(p.TokenID))
			if err != nil {
				return fmt.Errorf("insert plot %d/%d: %w", s.ID, p.ID, err)
			}
		}
	}
	return nil
}

func (db *DB) loadSettlements() ([]*social.Settlement, error) {
	var rows []struct {
		ID             int    `db:"id"`
		Name           string `db:"name"`
		BodyID         int    `db:"body_id"`
		TotalPlots     int    `db:"total_plots"`
		Infrastructure string `db:"infrastructure_json"`
	}
	if err := db.conn.Select(&rows, "SELECT * FROM settlements ORDER BY id"); err != nil {
		return nil, err
	}

	settlements := make([]*social.Settlement, 0, len(rows))
	byID := make(map[int]*social.Settlement, len(rows))
	for _, r := range rows {
		s := &social.Settlement{ID: r.ID, Name: r.Name, BodyID: r.BodyID, TotalPlots: r.TotalPlots}
		if err := fromJSON(r.Infrastructure, &s.Infrastructure); err != nil {
			return nil, fmt.Errorf("settlement %d: %w", r.ID, err)
		}
		s.Plots = make([]social.Plot, 0, r.TotalPlots)
		settlements = append(settlements, s)
		byID[s.ID] = s
	}

	var plots []plotRow
	if err := db.conn.Select(&plots, "SELECT * FROM plots ORDER BY settlement_id, id"); err != nil {
		return nil, err
	}
	for _, p := range plots {
		s, ok := byID[p.SettlementID]
		if !ok {
			return nil, fmt.Errorf("plot %d references missing settlement %d", p.ID, p.SettlementID)
		}
		s.Plots = append(s.Plots, social.Plot{
			ID:        p.ID,
			Zone:      social.Zone(p.Zone),
			Owner:     p.Owner,
			Structure: social.StructureType(p.Structure),
			NetValue:  p.NetValue,
			Developed: p.Developed,
			TokenID:   tokenValue(p.TokenID),
		})
	}
	for _, s := range settlements {
		s.Recompute()
	}
	return settlements, nil
}

type actorRow struct {
	ID           int           `db:"id"`
	BodyID       int           `db:"body_id"`
	Seed         int64         `db:"seed"`
	Name         string        `db:"name"`
	Heritage     string        `db:"heritage"`
	Generation   int           `db:"generation"`
	Age          int           `db:"age"`
	Stage        string        `db:"stage"`
	Loyal        bool          `db:"loyal"`
	JoinedPlayer string        `db:"joined_player"`
	TokenID      sql.NullInt64 `db:"token_id"`
	Attributes   string        `db:"attributes_json"`
	Personality  string        `db:"personality_json"`
	Skills       string        `db:"skills_json"`
	Loyalty      string        `db:"loyalty_json"`
	History      string        `db:"history_json"`
	RNG          string        `db:"rng_json"`
}

func saveActors(tx *sqlx.Tx, st engine.State) error {
	if _, err := tx.Exec("DELETE FROM actors"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO actors
		(id, body_id, seed, name, heritage, generation, age, stage, loyal, joined_player,
		 token_id, attributes_json, personality_json, skills_json, loyalty_json,
		 history_json, rng_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range st.Actors {
		var js [6]string
		for i, v := range []any{a.Attributes, a.Personality, a.Skills, a.Loyalty, a.History, a.RNG} {
			if js[i], err = toJSON(v); err != nil {
				return fmt.Errorf("actor %d: %w", a.ID, err)
			}
		}
		_, err := stmt.Exec(
			a.ID, a.BodyID, a.Seed, a.Name, a.Heritage, a.Generation, a.Age,
			string(a.Stage), boolInt(a.Loyal), a.JoinedPlayer, tokenParam(a.TokenID),
			js[0], js[1], js[2], js[3], js[4], js[5],
		)
		if err != nil {
			return fmt.Errorf("insert actor %d: %w", a.ID, err)
		}
	}
	return nil
}

func (db *DB) loadActors() ([]*agents.Actor, error) {
	var rows []actorRow
	if err := db.conn.Select(&rows, "SELECT * FROM actors ORDER BY id"); err != nil {
		return nil, err
	}
	actors := make([]*agents.Actor, 0, len(rows))
	for _, r := range rows {
		a := &agents.Actor{
			ID:           r.ID,
			BodyID:       r.BodyID,
			Seed:         r.Seed,
			Name:         r.Name,
			Heritage:     r.Heritage,
			Generation:   r.Generation,
			Age:          r.Age,
			Stage:        agents.State(r.Stage),
			Loyal:        r.Loyal,
			JoinedPlayer: r.JoinedPlayer,
			TokenID:      tokenValue(r.TokenID),
			RNG:          &entropy.Generator{},
		}
		for _, f := range []struct {
			src string
			dst any
		}{
			{r.Attributes, &a.Attributes},
			{r.Personality, &a.Personality},
			{r.Skills, &a.Skills},
			{r.Loyalty, &a.Loyalty},
			{r.History, &a.History},
			{r.RNG, a.RNG},
		} {
			if err := fromJSON(f.src, f.dst); err != nil {
				return nil, fmt.Errorf("actor %d: %w", r.ID, err)
			}
		}
		actors = append(actors, a)
	}
	return actors, nil
}

func saveFactions(tx *sqlx.Tx, st engine.State) error {
	if _, err := tx.Exec("DELETE FROM factions"); err != nil {
		return err
	}
	for _, f := range st.Factions {
		members, err := toJSON(f.Members)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT INTO factions (id, name, leader_id, founded, token_id, members_json)
			VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, f.Name, f.LeaderID, f.Founded, tokenParam(f.TokenID), members)
		if err != nil {
			return fmt.Errorf("insert faction %d: %w", f.ID, err)
		}
	}
	return nil
}

func (db *DB) loadFactions() ([]*social.Faction, error) {
	var rows []struct {
		ID       int           `db:"id"`
		Name     string        `db:"name"`
		LeaderID string        `db:"leader_id"`
		Founded  uint64        `db:"founded"`
		TokenID  sql.NullInt64 `db:"token_id"`
		Members  string        `db:"members_json"`
	}
	if err := db.conn.Select(&rows, "SELECT * FROM factions ORDER BY id"); err != nil {
		return nil, err
	}
	factions := make([]*social.Faction, 0, len(rows))
	for _, r := range rows {
		f := &social.Faction{ID: r.ID, Name: r.Name, LeaderID: r.LeaderID, Founded: r.Founded, TokenID: tokenValue(r.TokenID)}
		if err := fromJSON(r.Members, &f.Members); err != nil {
			return nil, fmt.Errorf("faction %d: %w", r.ID, err)
		}
		factions = append(factions, f)
	}
	return factions, nil
}
