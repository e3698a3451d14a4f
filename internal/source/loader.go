package source

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/model-inputs-cli/internal/depth"
	"github.com/sells-group/model-inputs-cli/internal/fetcher"
	"github.com/sells-group/model-inputs-cli/internal/model"
	"github.com/sells-group/model-inputs-cli/internal/normalize"
)

// Layout names the extract locations relative to the store base.
type Layout struct {
	DepthDir      string
	EfficiencyDir string
	PlayersDir    string
	TeamMap       string
}

// DefaultLayout returns the standard data/ layout.
func DefaultLayout() Layout {
	return Layout{
		DepthDir:      "data/player/depth",
		EfficiencyDir: "data/market/efficiency",
		PlayersDir:    "data/player/players",
		TeamMap:       "data/teams_map.json",
	}
}

// Loader reads provider extracts for a season. Missing or unreadable
// provider files are logged and skipped; only the team map is required.
type Loader struct {
	store  Store
	layout Layout
	log    *zap.Logger
}

// NewLoader creates a Loader over store.
func NewLoader(store Store, layout Layout) *Loader {
	return &Loader{
		store:  store,
		layout: layout,
		log:    zap.L().With(zap.String("component", "source")),
	}
}

// extractFile is one resolved and decoded provider file.
type extractFile struct {
	Name    string
	ModTime time.Time
	Records []fetcher.Record
}

// readExtract returns the first decodable {stem}_{season}.{ext} in dir,
// trying stems then formats in order. A candidate that fails to decode is
// logged and the next one is tried. It returns nil when no candidate exists,
// and the last decode error when candidates exist but none decode.
func (l *Loader) readExtract(ctx context.Context, dir string, stems []string, season int) (*extractFile, error) {
	var lastErr error
	for _, stem := range stems {
		for _, format := range fetcher.Formats {
			name := path.Join(dir, fmt.Sprintf("%s_%d.%s", stem, season, format))
			body, mtime, err := l.store.Open(ctx, name)
			if eris.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, eris.Wrapf(err, "source: open %s", name)
			}

			records, err := fetcher.DecodeRecords(ctx, format, body)
			_ = body.Close()
			if err != nil {
				if ctx.Err() != nil {
					return nil, eris.Wrapf(err, "source: decode %s", name)
				}
				l.log.Warn("extract undecodable, trying next format",
					zap.String("file", name),
					zap.Error(err),
				)
				lastErr = eris.Wrapf(err, "source: decode %s", name)
				continue
			}
			return &extractFile{Name: name, ModTime: mtime, Records: records}, nil
		}
	}
	return nil, lastErr
}

// tryExtract wraps readExtract with the skip-and-log policy. Only context
// cancellation is returned as an error.
func (l *Loader) tryExtract(ctx context.Context, provider, dir string, stems []string, season int) (*extractFile, error) {
	f, err := l.readExtract(ctx, dir, stems, season)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "source: load cancelled")
		}
		l.log.Warn("provider file unreadable, skipping",
			zap.String("provider", provider),
			zap.Int("season", season),
			zap.Error(err),
		)
		return nil, nil
	}
	if f == nil {
		l.log.Debug("provider file not found",
			zap.String("provider", provider),
			zap.Int("season", season),
		)
		return nil, nil
	}
	l.log.Info("provider file loaded",
		zap.String("provider", provider),
		zap.String("file", f.Name),
		zap.Int("rows", len(f.Records)),
	)
	return f, nil
}

// LoadDepth reads every depth provider for season, tagging each record with
// its provider and file mtime.
func (l *Loader) LoadDepth(ctx context.Context, season int) ([]model.RawDepthRecord, error) {
	var out []model.RawDepthRecord
	found := 0
	for _, p := range DepthProviders {
		f, err := l.tryExtract(ctx, string(p), l.layout.DepthDir, []string{string(p)}, season)
		if err != nil {
			return nil, err
		}
		if f == nil {
			continue
		}
		found++
		prov := model.Provenance{Source: p, ModTime: f.ModTime}
		for _, r := range f.Records {
			out = append(out, depthRecord(r, prov))
		}
	}
	if found == 0 {
		l.log.Warn("no depth provider files found", zap.Int("season", season))
	}
	return out, nil
}

// LoadEfficiency reads the SP+, FEI and pace extracts for season.
func (l *Loader) LoadEfficiency(ctx context.Context, season int) (model.RawEfficiency, error) {
	var raw model.RawEfficiency

	sp, err := l.tryExtract(ctx, ExtractSPPlus.Name, l.layout.EfficiencyDir, ExtractSPPlus.Stems, season)
	if err != nil {
		return raw, err
	}
	if sp != nil {
		for _, r := range sp.Records {
			raw.SPPlus = append(raw.SPPlus, ratingRow(r, "sp"))
		}
	}

	fei, err := l.tryExtract(ctx, ExtractFEI.Name, l.layout.EfficiencyDir, ExtractFEI.Stems, season)
	if err != nil {
		return raw, err
	}
	if fei != nil {
		for _, r := range fei.Records {
			raw.FEI = append(raw.FEI, ratingRow(r, "fei"))
		}
	}

	pace, err := l.tryExtract(ctx, ExtractPace.Name, l.layout.EfficiencyDir, ExtractPace.Stems, season)
	if err != nil {
		return raw, err
	}
	if pace != nil {
		for _, r := range pace.Records {
			raw.Pace = append(raw.Pace, paceRow(r))
		}
	}

	if sp == nil && fei == nil && pace == nil {
		l.log.Warn("no efficiency files found", zap.Int("season", season))
	}
	return raw, nil
}

// LoadTeamMap reads the display-name to team_id map. Any failure is fatal.
func (l *Loader) LoadTeamMap(ctx context.Context) (*normalize.TeamMap, error) {
	body, _, err := l.store.Open(ctx, l.layout.TeamMap)
	if err != nil {
		return nil, eris.Wrapf(err, "source: load team map %s", l.layout.TeamMap)
	}
	defer body.Close() //nolint:errcheck

	m, err := fetcher.DecodeJSONObject[map[string]string](body)
	if err != nil {
		return nil, eris.Wrapf(err, "source: load team map %s", l.layout.TeamMap)
	}
	teams := normalize.NewTeamMap(*m)
	if teams.Len() == 0 {
		l.log.Warn("team map is empty", zap.String("file", l.layout.TeamMap))
	}
	return teams, nil
}

// LoadOverrides reads the optional usage overrides for season. A missing
// or malformed file yields nil.
func (l *Loader) LoadOverrides(ctx context.Context, season int) (depth.Overrides, error) {
	name := path.Join(l.layout.DepthDir, fmt.Sprintf("overrides_%d.json", season))
	body, _, err := l.store.Open(ctx, name)
	if eris.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "source: load cancelled")
		}
		l.log.Warn("overrides unreadable, ignoring", zap.String("file", name), zap.Error(err))
		return nil, nil
	}
	defer body.Close() //nolint:errcheck

	ov, err := depth.DecodeOverrides(body)
	if err != nil {
		l.log.Warn("overrides malformed, ignoring", zap.String("file", name), zap.Error(err))
		return nil, nil
	}
	return ov, nil
}

// LoadPlayers reads the players extract for season. Unlike provider
// extracts, a missing file is an error.
func (l *Loader) LoadPlayers(ctx context.Context, season int) ([]model.Player, error) {
	f, err := l.readExtract(ctx, l.layout.PlayersDir, ExtractPlayer.Stems, season)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, eris.Wrapf(ErrNotFound, "source: no players extract for season %d", season)
	}

	players := make([]model.Player, 0, len(f.Records))
	skipped := 0
	for _, r := range f.Records {
		p, ok := playerRow(r)
		if !ok {
			skipped++
			continue
		}
		players = append(players, p)
	}
	l.log.Info("players loaded",
		zap.String("file", f.Name),
		zap.Int("players", len(players)),
		zap.Int("skipped", skipped),
	)
	return players, nil
}
