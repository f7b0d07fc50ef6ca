package scraper

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

const maxTitleLen = 200

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+?\d[\s-]?)?(?:\(?\d{3}\)?[\s-]?)?\d{3}[\s-]?\d{4}`)
)

// rolePrefixes is the vocabulary of organizational inbox names. Emails whose
// local part does not start with one of these are discarded as likely
// personal addresses.
var rolePrefixes = []string{
	"info", "hello", "contact", "support", "sales",
	"team", "office", "enquiries", "enquiry", "admin",
}

// socialDomains are matched by substring against anchor targets, not by exact
// host. A URL merely containing a platform name will match too; the leniency
// is intentional.
var socialDomains = []string{
	"facebook.com", "twitter.com", "x.com", "linkedin.com",
	"instagram.com", "tiktok.com", "youtube.com",
}

// ExtractContacts parses markup into structured contact signals. It is pure:
// no network access, and malformed HTML degrades to empty fields instead of
// failing.
func ExtractContacts(markup, sourceURL string) ContactRecord {
	record := ContactRecord{
		URL:     sourceURL,
		Org:     orgFromURL(sourceURL),
		Emails:  []string{},
		Phones:  []string{},
		Socials: []string{},
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return record
	}

	record.Title = truncate(strings.TrimSpace(doc.Find("title").First().Text()), maxTitleLen)

	text := doc.Text()
	record.Phones = sortedSet(phonePattern.FindAllString(text, -1))
	record.Emails = sortedSet(filterRoleEmails(emailPattern.FindAllString(text, -1)))

	socials := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		for _, domain := range socialDomains {
			if strings.Contains(href, domain) {
				socials[href] = struct{}{}
				return
			}
		}
	})
	record.Socials = sortedKeys(socials)

	return record
}

func filterRoleEmails(emails []string) []string {
	filtered := emails[:0]
	for _, email := range emails {
		local := strings.ToLower(strings.SplitN(email, "@", 2)[0])
		for _, prefix := range rolePrefixes {
			if strings.HasPrefix(local, prefix) {
				filtered = append(filtered, email)
				break
			}
		}
	}
	return filtered
}

// orgFromURL derives an organization label from the registrable domain, e.g.
// "https://www.acme.co.uk/about" -> "Acme". Empty when no domain can be
// extracted.
func orgFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	etld, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return ""
	}
	label, _, _ := strings.Cut(etld, ".")
	return capitalize(label)
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func sortedSet(values []string) []string {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
