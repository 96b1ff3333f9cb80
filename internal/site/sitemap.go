package site

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-portfolio/internal/projects"
)

type sitemapEntry struct {
	Location string
	LastMod  string
}

// buildSitemap lists every route. Project pages carry their record date as
// lastmod.
func buildSitemap(baseURL, basePath string, routes []string, records []*projects.Record) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	prefix := strings.TrimRight(basePath, "/")

	dates := make(map[string]string, len(records))
	for _, record := range records {
		dates["/"+projectsRoute+"/"+record.Slug+"/"] = record.Date
	}

	entries := make([]sitemapEntry, 0, len(routes))
	seen := map[string]struct{}{}
	for _, route := range routes {
		location := base + prefix + route
		if _, ok := seen[location]; ok {
			continue
		}
		seen[location] = struct{}{}
		entries = append(entries, sitemapEntry{Location: location, LastMod: dates[route]})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Location < entries[j].Location
	})

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, entry := range entries {
		builder.WriteString("  <url>\n")
		builder.WriteString(fmt.Sprintf("    <loc>%s</loc>\n", entry.Location))
		if entry.LastMod != "" {
			builder.WriteString(fmt.Sprintf("    <lastmod>%s</lastmod>\n", entry.LastMod))
		}
		builder.WriteString("  </url>\n")
	}
	builder.WriteString("</urlset>\n")
	return builder.String()
}
