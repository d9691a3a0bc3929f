package site

// DefaultVisual is the storefront hero shown before anything is configured.
func DefaultVisual() VisualSettings {
	return VisualSettings{
		BackgroundImage:   "",
		CarouselImages:    []string{},
		Title:             "Technologie a servis, ktore nakopnu vase podnikanie este tento tyzden.",
		Description:       "Dodavky UPS, klimatizacii a IT infrastruktury so zasahom do 48 hodin a lokalnou podporou.",
		PrimaryCtaLabel:   "Objavit riesenia",
		PrimaryCtaLink:    "/produkty",
		SecondaryCtaLabel: "Kontaktovat experta",
		SecondaryCtaLink:  "/kontakt",
		Highlights: []Highlight{
			{Metric: "48h", Title: "Servis do 48 h", Copy: "Lokalny tim inzinierov vyrazi do dvoch pracovnych dni."},
			{Metric: "ZTNA", Title: "Zero-trust standard", Copy: "Kazde zariadenie je overene politikami zero-trust."},
			{Metric: "-32%", Title: "Ekologicka logistika", Copy: "Partneri s CO2 neutralitou a transparentnym trackingom."},
		},
	}
}

func DefaultLinks() LinkSettings {
	return LinkSettings{
		LogoPrimaryLink: "https://www.2pnet.cz",
		LogoAdminLink:   "/admin",
		FooterLinks: []FooterLink{
			{Label: "Servis UPS", Value: "https://www.2pnet.cz/servis-ups"},
			{Label: "Klimatizacie", Value: "https://www.2pnet.cz/klimatizace"},
			{Label: "IT infrastruktura", Value: "https://www.2pnet.cz/servis-it"},
		},
	}
}

func DefaultMenu() MenuSettings {
	return MenuSettings{
		MainMenu: []MenuItem{
			{Label: "Domov", Href: "/"},
			{Label: "Produkty", Href: "/produkty"},
			{Label: "O nás", Href: "/o-nas"},
			{Label: "Kontakt", Href: "/kontakt"},
		},
		FooterMenu: []MenuItem{
			{Label: "Obchodné podmienky", Href: "/obchodne-podmienky"},
			{Label: "Ochrana osobných údajov", Href: "/ochrana-udajov"},
			{Label: "Cookies", Href: "/cookies"},
		},
		MobileMenuEnabled: true,
	}
}

func DefaultSiteSettings() SiteSettings {
	return SiteSettings{Hero: DefaultVisual(), Links: DefaultLinks()}
}

// DefaultAdminMenu is the backoffice navigation tree.
func DefaultAdminMenu() []AdminMenuItem {
	return []AdminMenuItem{
		{
			ID:          "section-administration",
			Label:       "Administrácia",
			Description: "Globálne nastavenia a vizuál",
			Children: []AdminMenuItem{
				{ID: "admin-visual", Label: "Vizuál & pozadie"},
				{ID: "admin-links", Label: "Linky & odkazy"},
				{ID: "admin-navigation", Label: "Menu & podmenu"},
			},
		},
		{
			ID:          "section-users",
			Label:       "Správa používateľov",
			Description: "Zákazníci a administrátori",
			Children: []AdminMenuItem{
				{ID: "admin-customers", Label: "Zákazníci"},
				{ID: "admin-admins", Label: "Administrátori"},
				{ID: "admin-access", Label: "Prístupy & práva"},
			},
		},
		{
			ID:          "section-documents",
			Label:       "Doklady",
			Description: "Objednávky, faktúry a Flexi",
			Children: []AdminMenuItem{
				{ID: "admin-orders", Label: "Objednávky"},
				{ID: "admin-invoices", Label: "Faktúry"},
				{ID: "admin-flexi", Label: "ABRA Flexi"},
			},
		},
		{
			ID:          "section-products",
			Label:       "Produkty",
			Description: "Katalóg, kategórie a akcie",
			Children: []AdminMenuItem{
				{ID: "admin-product-list", Label: "Katalóg produktov"},
				{ID: "admin-categories", Label: "Kategórie & podkategórie"},
				{ID: "admin-promotions", Label: "Akcie & kampane"},
			},
		},
		{
			ID:          "section-logging",
			Label:       "Logovanie",
			Description: "Audit a sledovanie zmien",
			Children: []AdminMenuItem{
				{ID: "admin-audit", Label: "Audit log"},
				{ID: "admin-system", Label: "Systémové udalosti"},
			},
		},
	}
}
