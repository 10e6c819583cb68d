package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>THE BRIDGE</title>
	<item>
		<title>ABC株式会社が資金調達を実施</title>
		<link>https://thebridge.jp/2024/03/abc</link>
		<guid>abc</guid>
		<description><![CDATA[<p>シードラウンドで1億円</p>]]></description>
		<pubDate>Fri, 01 Mar 2024 09:00:00 +0900</pubDate>
	</item>
	<item>
		<title>日付のない記事</title>
		<link>https://thebridge.jp/2024/03/nodate</link>
	</item>
</channel>
</rss>`

const rdfFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns="http://purl.org/rss/1.0/"
	xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	xmlns:dc="http://purl.org/dc/elements/1.1/">
	<channel rdf:about="https://prtimes.jp/">
		<title>PR TIMES</title>
		<link>https://prtimes.jp/</link>
		<description>PR TIMES</description>
	</channel>
	<item rdf:about="https://prtimes.jp/main/html/rd/p/1.html">
		<title>XYZ合同会社、シリーズAを完了</title>
		<link>https://prtimes.jp/main/html/rd/p/1.html</link>
		<description>XYZ合同会社は本日</description>
		<dc:date>2024-03-03T09:00:00+09:00</dc:date>
	</item>
</rdf:RDF>`

const atomFixture = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Atom source</title>
	<id>urn:radar:test</id>
	<updated>2024-03-02T09:00:00+09:00</updated>
	<entry>
		<title>株式会社ミライが増資</title>
		<link href="https://example.org/mirai"/>
		<id>urn:radar:mirai</id>
		<updated>2024-03-02T09:00:00+09:00</updated>
		<content type="html">&lt;p&gt;増資の詳細&lt;/p&gt;</content>
	</entry>
</feed>`

func TestParser_RSS(t *testing.T) {
	entries, err := NewParser().Parse(strings.NewReader(rssFixture))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "ABC株式会社が資金調達を実施", first.Title)
	assert.Equal(t, "https://thebridge.jp/2024/03/abc", first.Link)
	assert.Equal(t, "abc", first.GUID)
	assert.Contains(t, first.Description, "シードラウンド")
	require.NotNil(t, first.Published)
	assert.Equal(t, "2024-03-01 09:00", first.Published.Format("2006-01-02 15:04"))

	assert.Nil(t, entries[1].Published, "missing pubDate stays nil")
	assert.Empty(t, entries[1].Description)
}

func TestParser_RDF(t *testing.T) {
	entries, err := NewParser().Parse(strings.NewReader(rdfFixture))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "XYZ合同会社、シリーズAを完了", entries[0].Title)
	require.NotNil(t, entries[0].Published, "dc:date is used as publish date")
	assert.Equal(t, "2024-03-03", entries[0].Published.Format("2006-01-02"))
}

func TestParser_AtomFallsBackToUpdated(t *testing.T) {
	entries, err := NewParser().Parse(strings.NewReader(atomFixture))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "https://example.org/mirai", entry.Link)
	assert.Contains(t, entry.Description, "増資の詳細", "content used when description is empty")
	require.NotNil(t, entry.Published)
	assert.Equal(t, "2024-03-02", entry.Published.Format("2006-01-02"))
}

func TestParser_Malformed(t *testing.T) {
	_, err := NewParser().Parse(strings.NewReader("<html><body>not a feed</body></html>"))
	assert.Error(t, err)
}
