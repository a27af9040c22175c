package pii

import (
	"fmt"
	"math/rand/v2"
)

// No Go package in the dependency set provides Japanese-locale fake-data
// generation (the ecosystem equivalent of Rust's fake crate + JA_JP locale).
// Name/company/email/phone pools are hand-rolled here, the same approach the
// original detector used for its own address pool.

var fakeSurnames = []string{
	"佐藤", "鈴木", "高橋", "田中", "伊藤", "渡辺", "山本", "中村", "小林", "加藤",
	"吉田", "山田", "佐々木", "山口", "松本", "井上", "木村", "林", "斎藤", "清水",
}

var fakeGivenNames = []string{
	"太郎", "次郎", "花子", "美咲", "健太", "愛", "翔太", "優子", "大輔", "さくら",
	"蓮", "陽菜", "颯太", "結衣", "悠斗", "葵", "樹", "美月", "拓海", "梨花",
}

var fakeCompanySuffixes = []string{
	"商事株式会社", "工業株式会社", "物産株式会社", "システムズ株式会社", "フーズ株式会社",
}

var fakeCompanyStems = []string{
	"大和", "富士", "桜", "青葉", "朝日", "みなと", "北斗", "光", "緑", "新星",
}

var fakeEmailDomains = []string{
	"example.co.jp", "mail-sample.jp", "test-corp.co.jp", "sample-mail.jp",
}

var fakeAddresses = []string{
	"東京都千代田区霞が関1-1-1",
	"大阪府大阪市北区空町2-2-2",
	"神奈川県横浜市西区星川3-3-3",
	"愛知県名古屋市中区月見4-4-4",
	"福岡県福岡市博多区風花5-5-5",
	"北海道札幌市中央区雪原6-6-6",
	"京都府京都市左京区花園7-7-7",
	"兵庫県神戸市中央区潮風8-8-8",
	"広島県広島市中区朝日9-9-9",
	"宮城県仙台市青葉区若葉10-10-10",
	"埼玉県さいたま市大宮区星空11-11-11",
	"千葉県千葉市中央区虹色12-12-12",
	"静岡県静岡市葵区清風13-13-13",
	"新潟県新潟市中央区白雲14-14-14",
	"岡山県岡山市北区桃園15-15-15",
}

// pseudonymGenerator produces deterministic-per-process but unpredictable
// fake Japanese personal/corporate data, seeded from crypto-quality entropy
// at construction time. addressCounter cycles fakeAddresses round-robin so
// repeated calls within one process don't collide.
type pseudonymGenerator struct {
	rng            *rand.Rand
	addressCounter int
}

func newPseudonymGenerator() *pseudonymGenerator {
	return &pseudonymGenerator{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func (g *pseudonymGenerator) company() string {
	stem := fakeCompanyStems[g.rng.IntN(len(fakeCompanyStems))]
	suffix := fakeCompanySuffixes[g.rng.IntN(len(fakeCompanySuffixes))]
	return stem + suffix
}

func (g *pseudonymGenerator) person() string {
	surname := fakeSurnames[g.rng.IntN(len(fakeSurnames))]
	given := fakeGivenNames[g.rng.IntN(len(fakeGivenNames))]
	return surname + " " + given
}

func (g *pseudonymGenerator) email() string {
	user := fmt.Sprintf("user%04d", g.rng.IntN(10000))
	domain := fakeEmailDomains[g.rng.IntN(len(fakeEmailDomains))]
	return user + "@" + domain
}

func (g *pseudonymGenerator) phone() string {
	return fmt.Sprintf("0%d-%04d-%04d", 70+g.rng.IntN(20), g.rng.IntN(10000), g.rng.IntN(10000))
}

func (g *pseudonymGenerator) address() string {
	addr := fakeAddresses[g.addressCounter%len(fakeAddresses)]
	g.addressCounter++
	return addr
}
