package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html>
<head><title>  Acme Corp — Home  </title></head>
<body>
  <p>Reach us at info@acme.com or sales@acme.com.</p>
  <p>Jane is at jane.doe@acme.com (do not contact).</p>
  <p>Call (555) 123-4567 or +1 555 987 6543.</p>
  <a href="https://www.linkedin.com/company/acme">LinkedIn</a>
  <a href="https://facebook.com/acme">Facebook</a>
  <a href="https://facebook.com/acme">Facebook again</a>
  <a href="/about">About</a>
</body>
</html>`

func TestExtractContacts(t *testing.T) {
	t.Parallel()

	record := ExtractContacts(samplePage, "https://www.acme.com/contact")

	require.Equal(t, "Acme", record.Org)
	require.Equal(t, "Acme Corp — Home", record.Title)
	require.Equal(t, []string{"info@acme.com", "sales@acme.com"}, record.Emails)
	require.Equal(t, []string{
		"https://facebook.com/acme",
		"https://www.linkedin.com/company/acme",
	}, record.Socials)
	require.NotEmpty(t, record.Phones)
}

func TestExtractContactsDeterministic(t *testing.T) {
	t.Parallel()

	first := ExtractContacts(samplePage, "https://www.acme.com/contact")
	second := ExtractContacts(samplePage, "https://www.acme.com/contact")
	require.Equal(t, first, second)

	require.True(t, sortedStrings(first.Emails))
	require.True(t, sortedStrings(first.Phones))
	require.True(t, sortedStrings(first.Socials))
}

func sortedStrings(values []string) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			return false
		}
	}
	return true
}

func TestExtractContactsFiltersNonRoleEmails(t *testing.T) {
	t.Parallel()

	markup := `<html><body>jane.doe@acme.com info@acme.com</body></html>`
	record := ExtractContacts(markup, "http://acme.com")
	require.Equal(t, []string{"info@acme.com"}, record.Emails)
}

func TestExtractContactsRolePrefixMatching(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
		enquiries@shop.io Support-Desk@shop.io teamlead@shop.io bob@shop.io
	</body></html>`
	record := ExtractContacts(markup, "http://shop.io")

	// Prefix match on the local part, case-insensitive.
	require.Contains(t, record.Emails, "enquiries@shop.io")
	require.Contains(t, record.Emails, "Support-Desk@shop.io")
	require.Contains(t, record.Emails, "teamlead@shop.io")
	require.NotContains(t, record.Emails, "bob@shop.io")
}

func TestExtractContactsTruncatesTitle(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 500)
	markup := fmt.Sprintf("<html><head><title>%s</title></head><body></body></html>", long)
	record := ExtractContacts(markup, "http://acme.com")
	require.Len(t, record.Title, 200)
}

func TestExtractContactsMalformedMarkup(t *testing.T) {
	t.Parallel()

	record := ExtractContacts("<<<not html>>>", "http://acme.com")
	require.Equal(t, "Acme", record.Org)
	require.Empty(t, record.Title)
	require.Empty(t, record.Emails)
	require.Empty(t, record.Socials)

	empty := ExtractContacts("", "not a url at all")
	require.Empty(t, empty.Org)
	require.Empty(t, empty.Title)
}

func TestExtractContactsOrgFromRegistrableDomain(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		want string
	}{
		{"https://www.acme.co.uk/about", "Acme"},
		{"http://blog.example.com", "Example"},
		{"http://127.0.0.1:8080/", ""},
	}
	for _, tc := range cases {
		record := ExtractContacts("<html></html>", tc.url)
		require.Equal(t, tc.want, record.Org, "url %s", tc.url)
	}
}

func TestExtractContactsSocialSubstringMatch(t *testing.T) {
	t.Parallel()

	// Substring containment, not exact host match: a link that merely
	// mentions a platform in its query string still matches.
	markup := `<html><body>
		<a href="https://tracker.example/?to=instagram.com/acme">go</a>
		<a href="https://example.com/plain">plain</a>
	</body></html>`
	record := ExtractContacts(markup, "http://example.com")
	require.Equal(t, []string{"https://tracker.example/?to=instagram.com/acme"}, record.Socials)
}
