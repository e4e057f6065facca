package location

import "testing"

import "github.com/stretchr/testify/assert"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Location
	}{
		{"", Location{}},
		{"1", Location{Thread: "1"}},
		{"1:2", Location{Process: "1", Thread: "2"}},
		{"h:p:1:2", Location{Host: "h:p", Process: "1", Thread: "2"}},
		{"h:1:2", Location{Host: ":h", Process: "1", Thread: "2"}},
	}

	for _, c := range cases {
		got := Parse(c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestSameProcessAndHost(t *testing.T) {
	a := Parse("1:1")
	b := Parse("1:2")
	c := Parse("2:1")

	assert.True(t, a.SameProcess(b))
	assert.False(t, a.SameProcess(c))
	assert.True(t, a.SameHost(c))
}

func TestGroupKey(t *testing.T) {
	withProcess := Parse("1:2")
	withoutProcess := Parse("1")

	assert.NotEqual(t, withProcess.GroupKey(), withoutProcess.GroupKey())
	assert.Equal(t, Parse("1:2").GroupKey(), Parse("1:3").GroupKey())
}
