package sites

// Generic heuristics applied for every host. Site configs extend these lists.

var defaultAddEndpoints = []string{
	"/cart/add",
	"/cart/add.js",
	"/cart/items",
	"/add-to-cart",
	"/addtocart",
	"/add_to_cart",
	"/basket/add",
	"/bag/add",
	"/api/cart",
	"/checkout/cart/add",
	"/graphql",
}

var defaultGraphQLOps = []string{
	"addToCart",
	"addItemToCart",
	"addToBag",
	"cartLinesAdd",
	"addCartLines",
	"cartAddItem",
}

// Path markers that identify a product detail page.
var defaultProductPaths = []string{
	"/product/",
	"/products/",
	"/item/",
	"/itm/",
	"/dp/",
	"/ip/",
	"/pd/",
	"/p/",
}

// Path shapes that identify category/listing/shop-index pages, never a single
// purchasable item.
var defaultListingPaths = []string{
	"/category/",
	"/categories/",
	"/collections-all",
	"/search",
	"/browse/",
	"/catalog/",
	"/shop/all",
	"/c/",
	"/b/",
	"/sale/",
	"/new-arrivals",
	"/bestsellers",
}

// UI vocabulary marking variant pickers and other non-add controls.
var defaultVariantTokens = []string{
	"size",
	"color",
	"colour",
	"swatch",
	"variant",
	"option",
	"wishlist",
	"favorite",
	"favourite",
	"save-for-later",
	"nav",
	"menu",
	"breadcrumb",
	"filter",
	"sort",
}

// Filename/URL tokens identifying tracking pixels and other junk images.
var trackingImageTokens = []string{
	"pixel",
	"beacon",
	"spacer",
	"1x1",
	"blank.",
	"transparent.",
	"track",
}
