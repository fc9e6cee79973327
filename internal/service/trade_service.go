package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rotools/trader/internal/cache"
	"github.com/rotools/trader/internal/client"
	"github.com/rotools/trader/internal/kafka"
	"github.com/rotools/trader/internal/model"

	"go.uber.org/zap"
)

// AuditPublisher publishes trade mutation audit events. Satisfied by
// kafka.Producer; nil disables auditing.
type AuditPublisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// TradeService implements trade listing, detail normalization and the
// mutating actions. Normalized details are cached with a TTL; mutations
// invalidate the affected entry and drop the trade from the in-memory
// lists.
type TradeService struct {
	roblox  *client.RobloxClient
	pricing *PricingService
	thumbs  *ThumbnailService

	details *cache.Store[*model.Trade]

	mu     sync.RWMutex
	lists  map[model.TradeKind][]model.Trade
	unread int64

	auditor    AuditPublisher
	auditTopic string

	logger *zap.Logger
}

// NewTradeService creates a trade service. auditor may be nil when no
// broker is configured.
func NewTradeService(
	roblox *client.RobloxClient,
	pricing *PricingService,
	thumbs *ThumbnailService,
	detailTTL time.Duration,
	auditor AuditPublisher,
	auditTopic string,
	logger *zap.Logger,
) *TradeService {
	return &TradeService{
		roblox:     roblox,
		pricing:    pricing,
		thumbs:     thumbs,
		details:    cache.New[*model.Trade](detailTTL),
		lists:      make(map[model.TradeKind][]model.Trade),
		auditor:    auditor,
		auditTopic: auditTopic,
		logger:     logger,
	}
}

// ListTrades fetches one page of trade summaries of the given kind and
// enriches it with counterparty avatars. Summaries carry empty item lists;
// items are filled in only by GetTradeDetail.
func (s *TradeService) ListTrades(ctx context.Context, cookie string, kind model.TradeKind, limit int, cursor, sortOrder string) (*model.TradePage, error) {
	list, err := s.roblox.ListTrades(ctx, cookie, kind, limit, cursor, sortOrder)
	if err != nil {
		return nil, err
	}

	trades := make([]model.Trade, 0, len(list.Data))
	for _, summary := range list.Data {
		trades = append(trades, summaryToTrade(summary, kind))
	}
	s.enrichAvatars(ctx, trades)

	s.mu.Lock()
	s.lists[kind] = trades
	s.mu.Unlock()

	page := &model.TradePage{Trades: trades}
	if list.NextPageCursor != nil {
		page.NextCursor = *list.NextPageCursor
	}
	if list.PreviousPageCursor != nil {
		page.PreviousCursor = *list.PreviousPageCursor
	}
	return page, nil
}

// ListAllTrades fetches the three listings concurrently. Each kind is
// attempted independently: a failure is recorded as a warning and the other
// kinds still render.
func (s *TradeService) ListAllTrades(ctx context.Context, cookie string) *model.TradeDashboard {
	dashboard := &model.TradeDashboard{}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, kind := range []model.TradeKind{model.TradeKindInbound, model.TradeKindOutbound, model.TradeKindCompleted} {
		wg.Add(1)
		go func(kind model.TradeKind) {
			defer wg.Done()

			page, err := s.ListTrades(ctx, cookie, kind, client.DefaultTradePageSize, "", "Desc")

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("Failed to fetch trade listing",
					zap.String("kind", string(kind)),
					zap.Error(err))
				dashboard.Warnings = append(dashboard.Warnings, fmt.Sprintf("failed to load %s trades", kind))
				return
			}
			switch kind {
			case model.TradeKindInbound:
				dashboard.Inbound = page.Trades
			case model.TradeKindOutbound:
				dashboard.Outbound = page.Trades
			case model.TradeKindCompleted:
				dashboard.Completed = page.Trades
			}
		}(kind)
	}
	wg.Wait()

	return dashboard
}

// GetTradeDetail returns the normalized detail for one trade, from cache
// when live. Transport and auth failures propagate to the caller; a payload
// that cannot be normalized is logged and served as the terminal
// placeholder so the render layer never sees a malformed trade. The
// placeholder is never cached.
func (s *TradeService) GetTradeDetail(ctx context.Context, cookie string, currentUserID, tradeID int64) (*model.Trade, error) {
	key := tradeKey(tradeID)
	if trade, ok := s.details.Get(key); ok {
		return trade, nil
	}

	detail, err := s.roblox.GetTrade(ctx, cookie, tradeID)
	if err != nil {
		return nil, err
	}

	pricing, err := s.pricing.ItemDetails(ctx)
	if err != nil {
		s.logger.Warn("Pricing dataset unavailable, item values will be unassigned", zap.Error(err))
		pricing = nil
	}

	trade, err := NormalizeTrade(detail, currentUserID, pricing)
	if err != nil {
		s.logger.Error("Failed to normalize trade detail",
			zap.Int64("tradeId", tradeID),
			zap.Error(err))
		return model.PlaceholderTrade(tradeID), nil
	}

	s.enrichItemThumbnails(ctx, trade)
	s.details.Set(key, trade)
	return trade, nil
}

// AcceptTrade accepts an inbound trade and runs the post-mutation cleanup.
func (s *TradeService) AcceptTrade(ctx context.Context, cookie string, currentUserID, tradeID int64) error {
	if err := s.roblox.AcceptTrade(ctx, cookie, tradeID); err != nil {
		return err
	}
	s.afterMutation(ctx, cookie, currentUserID, tradeID, "accept")
	return nil
}

// DeclineTrade declines a trade and runs the post-mutation cleanup.
func (s *TradeService) DeclineTrade(ctx context.Context, cookie string, currentUserID, tradeID int64) error {
	if err := s.roblox.DeclineTrade(ctx, cookie, tradeID); err != nil {
		return err
	}
	s.afterMutation(ctx, cookie, currentUserID, tradeID, "decline")
	return nil
}

// CounterTrade sends a counter proposal. OfferItems are the user asset ids
// the current user gives, RequestItems the ones requested from the
// counterparty, matching the swapped offering/requesting lists the frontend
// builds.
func (s *TradeService) CounterTrade(ctx context.Context, cookie string, currentUserID int64, req model.CounterTradeRequest) (int64, error) {
	detail, err := s.roblox.GetTrade(ctx, cookie, req.TradeID)
	if err != nil {
		return 0, err
	}

	offers := []client.CounterOffer{
		{UserID: currentUserID, UserAssetIDs: req.OfferItems},
		{UserID: detail.User.ID, UserAssetIDs: req.RequestItems},
	}
	counterID, err := s.roblox.CounterTrade(ctx, cookie, req.TradeID, offers)
	if err != nil {
		return 0, err
	}

	s.afterMutation(ctx, cookie, currentUserID, req.TradeID, "counter")
	return counterID, nil
}

// UnreadCount fetches the inbound unread count and remembers it.
func (s *TradeService) UnreadCount(ctx context.Context, cookie string) (int64, error) {
	count, err := s.roblox.UnreadTradeCount(ctx, cookie)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.unread = count
	s.mu.Unlock()
	return count, nil
}

// LastUnreadCount returns the most recently fetched unread count.
func (s *TradeService) LastUnreadCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// CachedList returns a copy of the last fetched listing of a kind, so
// callers are isolated from later mutations.
func (s *TradeService) CachedList(kind model.TradeKind) []model.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades, ok := s.lists[kind]
	if !ok {
		return nil
	}
	out := make([]model.Trade, len(trades))
	copy(out, trades)
	return out
}

// afterMutation removes the trade from the detail cache and every in-memory
// list, re-queries the inbound unread count and publishes the audit event.
// Cleanup failures are logged but never fail the mutation that already
// succeeded upstream.
func (s *TradeService) afterMutation(ctx context.Context, cookie string, currentUserID, tradeID int64, action string) {
	s.details.Invalidate(tradeKey(tradeID))
	s.removeFromLists(tradeID)

	if _, err := s.UnreadCount(ctx, cookie); err != nil {
		s.logger.Warn("Failed to refresh unread trade count", zap.Error(err))
	}

	if s.auditor != nil {
		event := kafka.TradeEvent{
			Action:    action,
			TradeID:   tradeID,
			UserID:    currentUserID,
			Timestamp: time.Now(),
		}
		if err := s.auditor.Publish(ctx, s.auditTopic, tradeKey(tradeID), event); err != nil {
			s.logger.Warn("Failed to publish trade audit event",
				zap.String("action", action),
				zap.Int64("tradeId", tradeID),
				zap.Error(err))
		}
	}
}

func (s *TradeService) removeFromLists(tradeID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for kind, trades := range s.lists {
		filtered := make([]model.Trade, 0, len(trades))
		for _, t := range trades {
			if t.ID != tradeID {
				filtered = append(filtered, t)
			}
		}
		s.lists[kind] = filtered
	}
}

// enrichAvatars resolves counterparty avatars for a page of trades in one
// batch call. Failures leave the placeholder URL in place; a page never
// fails because of avatars.
func (s *TradeService) enrichAvatars(ctx context.Context, trades []model.Trade) {
	if len(trades) == 0 {
		return
	}

	ids := make([]int64, 0, len(trades))
	for _, t := range trades {
		ids = append(ids, t.User.ID)
	}

	avatars, err := s.thumbs.AvatarHeadshots(ctx, ids, DefaultThumbnailSize, DefaultThumbnailFormat, true)
	if err != nil {
		s.logger.Warn("Failed to batch-fetch avatars", zap.Error(err))
		return
	}

	for i := range trades {
		if url, ok := avatars[trades[i].User.ID]; ok {
			trades[i].User.Avatar = url
		}
	}
}

func (s *TradeService) enrichItemThumbnails(ctx context.Context, trade *model.Trade) {
	ids := make([]int64, 0, len(trade.Items.Offering)+len(trade.Items.Requesting))
	for _, item := range trade.Items.Offering {
		ids = append(ids, item.ID)
	}
	for _, item := range trade.Items.Requesting {
		ids = append(ids, item.ID)
	}
	if len(ids) == 0 {
		return
	}

	thumbnails, err := s.thumbs.AssetThumbnails(ctx, ids, DefaultThumbnailSize, DefaultThumbnailFormat)
	if err != nil {
		s.logger.Warn("Failed to batch-fetch item thumbnails",
			zap.Int64("tradeId", trade.ID),
			zap.Error(err))
		return
	}

	fill := func(items []model.TradeItem) {
		for i := range items {
			if url, ok := thumbnails[items[i].ID]; ok {
				items[i].Thumbnail = url
			}
		}
	}
	fill(trade.Items.Offering)
	fill(trade.Items.Requesting)
}

func tradeKey(tradeID int64) string {
	return strconv.FormatInt(tradeID, 10)
}

func summaryToTrade(summary model.RobloxTradeSummary, kind model.TradeKind) model.Trade {
	isActive := summary.IsActive
	trade := model.Trade{
		ID: summary.ID,
		User: model.TradeUser{
			ID:          summary.User.ID,
			Name:        summary.User.Name,
			DisplayName: summary.User.DisplayName,
			Avatar:      model.PlaceholderAvatarURL,
		},
		Status:     kindStatus(kind, summary.Status),
		Created:    summary.Created,
		Expiration: summary.Expiration,
		IsActive:   &isActive,
		Items: model.TradeItems{
			Offering:   []model.TradeItem{},
			Requesting: []model.TradeItem{},
		},
	}
	return trade
}

// kindStatus labels summaries by the listing they came from; the completed
// listing keeps the upstream terminal status so declined trades stay
// distinguishable.
func kindStatus(kind model.TradeKind, upstream string) model.TradeStatus {
	switch kind {
	case model.TradeKindInbound:
		return model.TradeStatusInbound
	case model.TradeKindOutbound:
		return model.TradeStatusOutbound
	default:
		if st := mapTradeStatus(upstream); st == model.TradeStatusDeclined {
			return st
		}
		return model.TradeStatusCompleted
	}
}
