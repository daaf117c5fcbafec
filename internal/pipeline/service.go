// Package pipeline sequences channel analysis, peer discovery, outlier
// detection and idea generation.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"nextvideo/internal/apperr"
	"nextvideo/internal/cache"
	"nextvideo/internal/catalog"
	"nextvideo/internal/genai"
	"nextvideo/internal/ideas"
	"nextvideo/internal/metrics"
	"nextvideo/internal/model"
	"nextvideo/internal/outliers"
	"nextvideo/internal/peers"
)

type Config struct {
	Threshold         float64
	FreeLimit         int
	MaxPeers          int
	PeerSearchResults int
	CatalogSize       int
	MaxOutliers       int
	PeerWorkers       int
	CallTimeout       time.Duration
	HistoryLimit      int
}

func DefaultConfig() Config {
	return Config{
		Threshold:         outliers.DefaultThreshold,
		FreeLimit:         3,
		MaxPeers:          10,
		PeerSearchResults: 20,
		CatalogSize:       30,
		MaxOutliers:       30,
		PeerWorkers:       4,
		CallTimeout:       20 * time.Second,
		HistoryLimit:      20,
	}
}

// Deps are the collaborators a Service calls. Cache, Usage, Entitlements and
// History may be nil: no caching, no free-tier gate, nobody entitled, no
// history.
type Deps struct {
	Resolver     Resolver
	Catalog      CatalogFetcher
	Search       peers.ChannelSearcher
	Generator    genai.Generator
	Cache        cache.Store
	Usage        UsageCounter
	Entitlements Entitlements
	History      HistoryStore
	Logger       zerolog.Logger
	Now          func() time.Time
}

// Service holds no per-request state and is safe for concurrent use.
type Service struct {
	resolver Resolver
	catalog  CatalogFetcher
	search   peers.ChannelSearcher
	gen      genai.Generator
	synth    *ideas.Synthesizer
	cache    cache.Store
	usage    UsageCounter
	entitled Entitlements
	history  HistoryStore
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

func New(d Deps, cfg Config) *Service {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	var cat CatalogFetcher = d.Catalog
	if d.Cache != nil {
		cat = cachedCatalog{next: d.Catalog, store: d.Cache, log: d.Logger}
	}
	synth := ideas.NewSynthesizer(d.Generator)
	synth.Now = now
	return &Service{
		resolver: d.Resolver,
		catalog:  cat,
		search:   d.Search,
		gen:      d.Generator,
		synth:    synth,
		cache:    d.Cache,
		usage:    d.Usage,
		entitled: d.Entitlements,
		history:  d.History,
		cfg:      cfg,
		log:      d.Logger,
		now:      now,
	}
}

type Analysis struct {
	Channel      model.ChannelProfile `json:"channel"`
	Niche        []string             `json:"niche"`
	RecentTitles []string             `json:"recent_titles,omitempty"`
}

// Analyze resolves query to a channel and classifies its niche.
func (s *Service) Analyze(ctx context.Context, query string) (Analysis, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Analysis{}, apperr.Invalid("analyze-channel", "please provide a channel URL, handle, or name")
	}
	return cached(ctx, s.cache, s.log, cache.KindChannel, cache.ChannelKey(q), nil, func(ctx context.Context) (Analysis, error) {
		ch, err := s.resolver.ResolveChannel(ctx, q)
		if err != nil {
			return Analysis{}, apperr.Wrap(apperr.KindUnavailable, "resolve-channel", err)
		}

		var titles []string
		videos, err := s.catalog.FetchRecentVideos(ctx, ch.ChannelID, s.cfg.CatalogSize)
		if err != nil {
			s.log.Warn().Err(err).Str("channel", ch.ChannelID).Msg("analyze: recent videos unavailable, classifying from description")
		}
		for _, v := range videos {
			titles = append(titles, v.Title)
		}

		niche, err := ideas.ExtractNiche(ctx, s.gen, ch, titles)
		if err != nil {
			return Analysis{}, err
		}
		s.log.Info().Str("channel", ch.ChannelID).Int64("subs", ch.SubscriberCount).Strs("niche", niche).Msg("analyze: ok")
		return Analysis{Channel: ch, Niche: niche, RecentTitles: titles}, nil
	})
}

type PeerRequest struct {
	Owner           model.Owner
	ChannelID       string
	SubscriberCount int64
	Niche           []string
}

type PeerResult struct {
	Band     model.PeerBand       `json:"peer_range"`
	Peers    []model.PeerSummary  `json:"peers"`
	Outliers []model.OutlierVideo `json:"outliers"`
}

// FindPeers gates on the free tier, finds peers one tier up and returns their
// outliers ranked across channels.
func (s *Service) FindPeers(ctx context.Context, req PeerRequest) (PeerResult, error) {
	if req.ChannelID == "" || len(req.Niche) == 0 {
		return PeerResult{}, apperr.Invalid("find-peers", "channel id and niche are required")
	}
	if err := s.checkQuota(ctx, req.Owner); err != nil {
		return PeerResult{}, err
	}

	band := peers.SelectBand(req.SubscriberCount)
	candidates, err := cached(ctx, s.cache, s.log, cache.KindPeers, cache.PeersKey(req.Niche, band), nonEmpty[model.ChannelProfile],
		func(ctx context.Context) ([]model.ChannelProfile, error) {
			return peers.Discover(ctx, s.search, req.Niche, band, s.cfg.PeerSearchResults)
		})
	if err != nil {
		return PeerResult{}, err
	}

	list := peers.ExcludeChannel(candidates, req.ChannelID)
	if len(list) == 0 {
		return PeerResult{}, apperr.NotFound("find-peers", "no peer channels found in this niche, try a different channel")
	}
	if s.cfg.MaxPeers > 0 && len(list) > s.cfg.MaxPeers {
		list = list[:s.cfg.MaxPeers]
	}

	summaries, sets, err := s.scanPeers(ctx, list)
	if err != nil {
		return PeerResult{}, err
	}
	ranked := outliers.Rank(sets, s.cfg.MaxOutliers)
	s.log.Info().Str("channel", req.ChannelID).Int64("band_min", band.Min).Int64("band_max", band.Max).
		Int("peers", len(summaries)).Int("outliers", len(ranked)).Msg("find-peers: ok")
	return PeerResult{Band: band, Peers: summaries, Outliers: ranked}, nil
}

// scanPeers fetches and scores every peer concurrently. A peer whose catalog
// cannot be fetched contributes nothing; the stage fails only if all did or
// ctx ended.
func (s *Service) scanPeers(ctx context.Context, list []model.ChannelProfile) ([]model.PeerSummary, [][]model.OutlierVideo, error) {
	summaries := make([]model.PeerSummary, len(list))
	sets := make([][]model.OutlierVideo, len(list))
	failures := make([]error, len(list))

	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.PeerWorkers > 0 {
		g.SetLimit(s.cfg.PeerWorkers)
	}
	for i, peer := range list {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cctx, cancel := s.callContext(gctx)
			videos, err := s.catalog.FetchRecentVideos(cctx, peer.ChannelID, s.cfg.CatalogSize)
			cancel()
			summaries[i] = model.PeerSummary{ChannelProfile: peer}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures[i] = err
				s.log.Warn().Err(err).Str("peer", peer.ChannelID).Msg("find-peers: catalog fetch failed")
				return nil
			}

			eligible := catalog.Normalize(videos, s.now())
			found := outliers.Detect(eligible, peer.ChannelID, peer.Title, s.cfg.Threshold)
			metrics.PeerOutliers.Observe(float64(len(found)))
			summaries[i].SampledVideos = len(eligible)
			summaries[i].OutlierCount = len(found)
			sets[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, apperr.Unavailable("find-peers", err)
	}

	var failed int
	var firstErr error
	for _, err := range failures {
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if failed == len(list) {
		return nil, nil, apperr.Unavailable("find-peers", firstErr)
	}
	return summaries, sets, nil
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.CallTimeout)
}

// checkQuota refuses non-entitled owners who used up the free tier. It runs
// before any external search.
func (s *Service) checkQuota(ctx context.Context, owner model.Owner) error {
	if s.usage == nil {
		return nil
	}
	if s.entitled != nil {
		ok, err := s.entitled.IsEntitled(ctx, owner)
		if err != nil {
			return apperr.Unavailable("quota", err)
		}
		if ok {
			return nil
		}
	}
	count, err := s.usage.CountGenerations(ctx, owner)
	if err != nil {
		return apperr.Unavailable("quota", err)
	}
	if count >= s.cfg.FreeLimit {
		metrics.QuotaRejections.Inc()
		return apperr.QuotaExceeded("find-peers", count, s.cfg.FreeLimit)
	}
	return nil
}

type IdeaRequest struct {
	Owner        model.Owner
	Channel      model.ChannelProfile
	Niche        []string
	Peers        []model.PeerSummary
	Outliers     []model.OutlierVideo
	RecentTitles []string
}

// GenerateIdeas synthesizes ideas from ranked outliers and records the run in
// history. A history write failure is logged, not returned.
func (s *Service) GenerateIdeas(ctx context.Context, req IdeaRequest) (model.Generation, error) {
	if req.Channel.ChannelID == "" || len(req.Niche) == 0 || len(req.Outliers) == 0 {
		return model.Generation{}, apperr.Invalid("generate-ideas", "channel, niche and outliers are required")
	}
	out, err := s.synth.Synthesize(ctx, req.Channel, req.Niche, req.Outliers, req.RecentTitles)
	if err != nil {
		return model.Generation{}, err
	}
	if len(out) == 0 {
		return model.Generation{}, apperr.Malformed("generate-ideas", "failed to generate ideas, please try again")
	}

	kept := req.Outliers
	if len(kept) > ideas.DefaultWorkingSet {
		kept = kept[:ideas.DefaultWorkingSet]
	}
	g := model.Generation{
		Owner:     req.Owner,
		Channel:   req.Channel,
		Niche:     req.Niche,
		Peers:     req.Peers,
		Outliers:  kept,
		Ideas:     out,
		CreatedAt: s.now().UTC(),
	}
	if s.history != nil {
		id, err := s.history.SaveGeneration(ctx, g)
		if err != nil {
			s.log.Error().Err(err).Str("channel", req.Channel.ChannelID).Msg("generate-ideas: history save failed")
		} else {
			g.ID = id
		}
	}
	s.log.Info().Str("channel", req.Channel.ChannelID).Int("ideas", len(out)).Str("generation", g.ID).Msg("generate-ideas: ok")
	return g, nil
}

type RunResult struct {
	Analysis   Analysis         `json:"analysis"`
	Peers      PeerResult       `json:"peers"`
	Generation model.Generation `json:"generation"`
}

// Run executes every stage for query in order.
func (s *Service) Run(ctx context.Context, owner model.Owner, query string) (RunResult, error) {
	a, err := s.Analyze(ctx, query)
	if err != nil {
		return RunResult{}, err
	}
	p, err := s.FindPeers(ctx, PeerRequest{
		Owner:           owner,
		ChannelID:       a.Channel.ChannelID,
		SubscriberCount: a.Channel.SubscriberCount,
		Niche:           a.Niche,
	})
	if err != nil {
		return RunResult{Analysis: a}, err
	}
	if len(p.Outliers) == 0 {
		return RunResult{Analysis: a, Peers: p}, apperr.NotFound("find-peers", "peer channels have no outlier videos right now, try again later")
	}
	g, err := s.GenerateIdeas(ctx, IdeaRequest{
		Owner:        owner,
		Channel:      a.Channel,
		Niche:        a.Niche,
		Peers:        p.Peers,
		Outliers:     p.Outliers,
		RecentTitles: a.RecentTitles,
	})
	if err != nil {
		return RunResult{Analysis: a, Peers: p}, err
	}
	return RunResult{Analysis: a, Peers: p, Generation: g}, nil
}

func (s *Service) History(ctx context.Context, owner model.Owner) ([]model.Generation, error) {
	if s.history == nil || owner.IsZero() {
		return []model.Generation{}, nil
	}
	out, err := s.history.ListGenerations(ctx, owner, s.cfg.HistoryLimit)
	if err != nil {
		return nil, apperr.Unavailable("history", err)
	}
	return out, nil
}

// Share loads one generation by id for public viewing.
func (s *Service) Share(ctx context.Context, id string) (model.Generation, error) {
	if s.history == nil {
		return model.Generation{}, apperr.NotFound("share", "generation not found")
	}
	g, err := s.history.GetGeneration(ctx, strings.TrimSpace(id))
	if err != nil {
		return model.Generation{}, apperr.Unavailable("share", err)
	}
	return g, nil
}

// MigrateSession moves anonymous history onto a signed-in user.
func (s *Service) MigrateSession(ctx context.Context, sessionID, userID string) (int64, error) {
	if sessionID == "" || userID == "" {
		return 0, apperr.Invalid("migrate-history", "session id and user id are required")
	}
	if s.history == nil {
		return 0, nil
	}
	n, err := s.history.MigrateSession(ctx, sessionID, userID)
	if err != nil {
		return 0, apperr.Unavailable("migrate-history", err)
	}
	return n, nil
}
