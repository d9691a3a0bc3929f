package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"eshop/internal/configstore"
	"eshop/internal/logger"
	"eshop/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, string) {
	dir := t.TempDir()
	store := configstore.New(testutil.NewDB(t), logger.NewNop(), dir)
	return NewService(store, logger.NewNop()), dir
}

func TestDefaults(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	visual, err := svc.Visual(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultVisual(), visual)

	links, err := svc.Links(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://www.2pnet.cz", links.LogoPrimaryLink)
	assert.Len(t, links.FooterLinks, 3)

	menu, err := svc.Menu(ctx)
	require.NoError(t, err)
	assert.True(t, menu.MobileMenuEnabled)
	assert.Equal(t, "/produkty", menu.MainMenu[1].Href)

	adminMenu, err := svc.AdminMenu(ctx)
	require.NoError(t, err)
	require.Len(t, adminMenu, 5)
	assert.Equal(t, "section-administration", adminMenu[0].ID)
}

func TestSaveVisualMergesPartialPayload(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	saved, err := svc.SaveVisual(ctx, []byte(`{"title":"Nový titulok","carouselImages":["a.jpg","b.jpg"]}`))
	require.NoError(t, err)
	assert.Equal(t, "Nový titulok", saved.Title)
	assert.Equal(t, DefaultVisual().PrimaryCtaLink, saved.PrimaryCtaLink)

	_, err = svc.SaveVisual(ctx, []byte(`{"backgroundImage":"bg.png"}`))
	require.NoError(t, err)

	visual, err := svc.Visual(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Nový titulok", visual.Title)
	assert.Equal(t, "bg.png", visual.BackgroundImage)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, visual.CarouselImages)

	_, err = svc.SaveVisual(ctx, []byte(`{"title":`))
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestLegacyCombinedFileIsUnwrapped(t *testing.T) {
	svc, dir := newService(t)
	ctx := context.Background()

	legacy := `{"hero":{"title":"Starý titulok"},"links":{"logoAdminLink":"/sprava"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "siteSettings.json"), []byte(legacy), 0o644))

	visual, err := svc.Visual(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Starý titulok", visual.Title)
	assert.Equal(t, DefaultVisual().Description, visual.Description)

	links, err := svc.Links(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/sprava", links.LogoAdminLink)
	assert.Equal(t, DefaultLinks().LogoPrimaryLink, links.LogoPrimaryLink)
}

func TestSaveMenuAndLinks(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	menu, err := svc.SaveMenu(ctx, []byte(`{"mobileMenuEnabled":false,"mainMenu":[{"label":"Akcie","href":"/akcie","children":[{"label":"Leto","href":"/akcie/leto"}]}]}`))
	require.NoError(t, err)
	assert.False(t, menu.MobileMenuEnabled)
	require.Len(t, menu.MainMenu, 1)
	assert.Equal(t, "/akcie/leto", menu.MainMenu[0].Children[0].Href)
	assert.Equal(t, DefaultMenu().FooterMenu, menu.FooterMenu)

	links, err := svc.SaveLinks(ctx, []byte(`{"footerLinks":[{"label":"Blog","value":"https://blog.2pnet.cz"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []FooterLink{{Label: "Blog", Value: "https://blog.2pnet.cz"}}, links.FooterLinks)
	assert.Equal(t, "/admin", links.LogoAdminLink)
}

func TestSaveSiteSettingsOnlyTouchesHeroImagesAndLinks(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	saved, err := svc.SaveSiteSettings(ctx, []byte(`{
		"hero": {"backgroundImage": "hero.jpg", "carouselImages": ["1.jpg"], "title": "ignored"},
		"links": {"logoPrimaryLink": "https://2pnet.sk"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "hero.jpg", saved.Hero.BackgroundImage)
	assert.Equal(t, []string{"1.jpg"}, saved.Hero.CarouselImages)
	assert.Equal(t, DefaultVisual().Title, saved.Hero.Title)
	assert.Equal(t, "https://2pnet.sk", saved.Links.LogoPrimaryLink)
	assert.Len(t, saved.Links.FooterLinks, 3)

	current, err := svc.SiteSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, current)

	_, err = svc.SaveSiteSettings(ctx, []byte(`[]`))
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestAdminMenu(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SaveAdminMenu(ctx, nil), ErrInvalidMenu)

	custom := []AdminMenuItem{{ID: "section-custom", Label: "Vlastné", Children: []AdminMenuItem{{ID: "custom-a", Label: "A"}}}}
	require.NoError(t, svc.SaveAdminMenu(ctx, custom))
	menu, err := svc.AdminMenu(ctx)
	require.NoError(t, err)
	assert.Equal(t, custom, menu)

	require.NoError(t, svc.SaveAdminMenu(ctx, []AdminMenuItem{}))
	menu, err = svc.AdminMenu(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminMenu(), menu)
}
