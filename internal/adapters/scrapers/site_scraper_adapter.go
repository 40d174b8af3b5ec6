package scrapers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"

	"huizenzoeker/internal/contextkeys"
	"huizenzoeker/internal/core/domain"
	"huizenzoeker/internal/core/port"
)

// Selectors описывает CSS-селекторы карточки объявления на странице выдачи.
// Несколько вариантов через запятую допустимы, колли берёт первое совпадение.
type Selectors struct {
	Item    string
	Link    string
	Address string
	City    string
	Price   string
	Area    string
	Rooms   string
	Type    string
}

// SiteConfig - настройки одного сайта-источника.
type SiteConfig struct {
	Name      string
	BaseURL   string
	ListPath  string
	Selectors Selectors
}

// SiteScraperAdapter собирает снимки объявлений с одного сайта недвижимости.
// Все сайты размечены похоже, поэтому адаптер общий, а различия живут в SiteConfig.
type SiteScraperAdapter struct {
	config    SiteConfig
	collector *colly.Collector
}

func NewSiteScraperAdapter(config SiteConfig) (*SiteScraperAdapter, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("site scraper: name is required")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("site scraper: base URL is required")
	}
	if config.Selectors.Item == "" {
		return nil, fmt.Errorf("site scraper: item selector is required")
	}

	// родительский коллектор, клонируется на каждый запуск
	c := colly.NewCollector(colly.AllowURLRevisit())

	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		RandomDelay: 2 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("site scraper: failed to set limit rule: %w", err)
	}

	extensions.RandomUserAgent(c)
	extensions.Referer(c)

	return &SiteScraperAdapter{
		config:    config,
		collector: c,
	}, nil
}

func (a *SiteScraperAdapter) Name() string {
	return a.config.Name
}

// FetchBatch обходит страницу выдачи и возвращает полный снимок текущих объявлений сайта.
func (a *SiteScraperAdapter) FetchBatch(ctx context.Context, criteria domain.Criteria) ([]domain.Snapshot, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "SiteScraperAdapter",
		"source":    a.config.Name,
	})

	collector := a.collector.Clone()

	var snapshots []domain.Snapshot
	var responseErr error

	collector.OnRequest(func(r *colly.Request) {
		logger.Debug("Fetching listings page", port.Fields{"url": r.URL.String()})
		r.Headers.Set("Accept-Language", "nl-NL,nl;q=0.9,en;q=0.7")
	})

	collector.OnHTML(a.config.Selectors.Item, func(e *colly.HTMLElement) {
		snapshot, ok := a.parseItem(e)
		if !ok {
			logger.Warn("Skipping listing card without a link", port.Fields{"url": e.Request.URL.String()})
			return
		}
		snapshots = append(snapshots, snapshot)
	})

	collector.OnError(func(r *colly.Response, err error) {
		logger.Error("Failed to fetch listings page", err, port.Fields{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
		})
		responseErr = fmt.Errorf("site scraper %s: request to %s failed with status %d: %w", a.config.Name, r.Request.URL, r.StatusCode, err)
	})

	if err := collector.Visit(a.listURL(criteria)); err != nil {
		logger.Error("Failed to start visit", err, port.Fields{"url": a.listURL(criteria)})
		return nil, fmt.Errorf("site scraper %s: failed to visit: %w", a.config.Name, err)
	}
	collector.Wait()

	if responseErr != nil {
		return nil, responseErr
	}

	logger.Info("Finished fetching listings", port.Fields{"snapshots": len(snapshots)})
	return snapshots, nil
}

// listURL строит адрес страницы выдачи с фильтром по цене, если он задан.
func (a *SiteScraperAdapter) listURL(criteria domain.Criteria) string {
	url := strings.TrimSuffix(a.config.BaseURL, "/") + a.config.ListPath
	if criteria.MinPrice > 0 || criteria.MaxPrice > 0 {
		url += fmt.Sprintf("?prijs-van=%d", criteria.MinPrice)
		if criteria.MaxPrice > 0 {
			url += fmt.Sprintf("&prijs-tot=%d", criteria.MaxPrice)
		}
	}
	return url
}

func (a *SiteScraperAdapter) parseItem(e *colly.HTMLElement) (domain.Snapshot, bool) {
	link := e.ChildAttr(a.config.Selectors.Link, "href")
	if link == "" {
		return domain.Snapshot{}, false
	}
	if !strings.HasPrefix(link, "http") {
		link = strings.TrimSuffix(a.config.BaseURL, "/") + "/" + strings.TrimPrefix(link, "/")
	}

	snapshot := domain.Snapshot{
		ID:           listingID(a.config.Name, link),
		Source:       a.config.Name,
		URL:          link,
		Address:      strings.TrimSpace(e.ChildText(a.config.Selectors.Address)),
		City:         strings.TrimSpace(e.ChildText(a.config.Selectors.City)),
		PropertyType: strings.TrimSpace(e.ChildText(a.config.Selectors.Type)),
	}

	if price, ok := cleanPrice(e.ChildText(a.config.Selectors.Price)); ok {
		snapshot.Price = price
	}
	if area, ok := cleanNumber(e.ChildText(a.config.Selectors.Area)); ok {
		snapshot.Area = &area
	}
	if rooms, ok := cleanNumber(e.ChildText(a.config.Selectors.Rooms)); ok {
		snapshot.Rooms = &rooms
	}

	return snapshot, true
}
