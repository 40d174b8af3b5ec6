package scrapers

// Разметка карточек у макелаарских сайтов похожа, но классы различаются.
// Несколько селекторов через запятую покрывают варианты вёрстки.
var siteConfigs = map[string]SiteConfig{
	"ooms": {
		Name:     "ooms",
		BaseURL:  "https://www.ooms.com",
		ListPath: "/woningaanbod",
		Selectors: Selectors{
			Item:    ".property-item, .property, .object-item",
			Link:    "a",
			Address: ".address, .street",
			City:    ".city, .location",
			Price:   ".price, .object-price",
			Area:    ".surface, .size, .object-size",
			Rooms:   ".rooms, .object-rooms",
			Type:    ".type, .object-type",
		},
	},
	"klipenvw": {
		Name:     "klipenvw",
		BaseURL:  "https://www.klipenvw.nl",
		ListPath: "/woningaanbod",
		Selectors: Selectors{
			Item:    ".property-item, .woning-item",
			Link:    "a.property-link, a",
			Address: ".property-address, .address",
			City:    ".property-city, .city",
			Price:   ".property-price, .price",
			Area:    ".property-size, .size",
			Rooms:   ".property-rooms, .rooms",
			Type:    ".property-type, .type",
		},
	},
	"bijdevaate": {
		Name:     "bijdevaate",
		BaseURL:  "https://www.bijdevaatemakelaardij.nl",
		ListPath: "/aanbod",
		Selectors: Selectors{
			Item:    ".property-item, .object, .aanbod-item",
			Link:    "a",
			Address: ".address, .object-address",
			City:    ".city, .object-city",
			Price:   ".price, .object-price",
			Area:    ".size, .object-size",
			Rooms:   ".rooms, .object-rooms",
			Type:    ".type, .object-type",
		},
	},
	"rozenburgmakelaardij": {
		Name:     "rozenburgmakelaardij",
		BaseURL:  "https://www.rozenburgmakelaardij.nl",
		ListPath: "/woningaanbod",
		Selectors: Selectors{
			Item:    ".property-item, .woning",
			Link:    "a",
			Address: ".address, .woning-adres",
			City:    ".city, .woning-plaats",
			Price:   ".price, .woning-prijs",
			Area:    ".size, .woning-oppervlakte",
			Rooms:   ".rooms, .woning-kamers",
			Type:    ".type, .woning-type",
		},
	},
}

// BuildScrapers создаёт адаптеры для перечисленных источников.
// Неизвестные имена пропускаются без ошибки, о них сообщает вызывающий код.
func BuildScrapers(names []string) ([]*SiteScraperAdapter, []string, error) {
	var adapters []*SiteScraperAdapter
	var unknown []string
	for _, name := range names {
		config, ok := siteConfigs[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		adapter, err := NewSiteScraperAdapter(config)
		if err != nil {
			return nil, nil, err
		}
		adapters = append(adapters, adapter)
	}
	return adapters, unknown, nil
}

// KnownSites возвращает имена всех поддерживаемых источников.
func KnownSites() []string {
	names := make([]string, 0, len(siteConfigs))
	for name := range siteConfigs {
		names = append(names, name)
	}
	return names
}
