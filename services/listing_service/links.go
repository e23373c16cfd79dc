package listing_service

import (
	"net/url"
	"strconv"

	"estate-listing/inout"
)

// BuildPageLinks builds pagination links for path. Every query parameter except page is kept.
func BuildPageLinks(path string, query url.Values, currentPage, totalPages int) inout.PageLinks {
	pageURL := func(page int) string {
		q := url.Values{}
		for k, v := range query {
			if k == "page" {
				continue
			}
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		return path + "?" + q.Encode()
	}

	links := inout.PageLinks{
		Path:         path,
		FirstPageURL: pageURL(1),
		LastPageURL:  pageURL(totalPages),
		Links:        make([]inout.PageLink, 0, totalPages+2),
	}

	if currentPage > 1 {
		prev := pageURL(min(currentPage-1, totalPages))
		links.PrevPageURL = &prev
	}
	if currentPage < totalPages {
		next := pageURL(currentPage + 1)
		links.NextPageURL = &next
	}

	links.Links = append(links.Links, inout.PageLink{URL: links.PrevPageURL, Label: "&laquo; Previous"})
	prevShown := 0
	for p := 1; p <= totalPages; p++ {
		if !inLinkWindow(p, currentPage, totalPages) {
			continue
		}
		if prevShown != 0 && p > prevShown+1 {
			links.Links = append(links.Links, inout.PageLink{Label: "..."})
		}
		u := pageURL(p)
		links.Links = append(links.Links, inout.PageLink{URL: &u, Label: strconv.Itoa(p), Active: p == currentPage})
		prevShown = p
	}
	links.Links = append(links.Links, inout.PageLink{URL: links.NextPageURL, Label: "Next &raquo;"})

	return links
}

// linksOnEachSide 当前页两侧显示的页码数
const linksOnEachSide = 3

// inLinkWindow keeps short page lists whole. Longer lists show the first two pages,
// the last two and a window around the current page.
func inLinkWindow(page, current, total int) bool {
	if total < linksOnEachSide*2+8 {
		return true
	}
	if page <= 2 || page > total-2 {
		return true
	}
	return page >= current-linksOnEachSide && page <= current+linksOnEachSide
}
