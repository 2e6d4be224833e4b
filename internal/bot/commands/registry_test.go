package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YogurtTheHorse/karma-bot/internal/common"
)

func newDefault(t *testing.T) *Registry {
	t.Helper()
	r, err := Default("/")
	require.NoError(t, err)
	return r
}

func TestRegistry_ListIncludesHelp(t *testing.T) {
	r := NewRegistry("")
	assert.Equal(t, "/help - Lists all commands", r.List())
}

func TestRegistry_ListOrderAndArgs(t *testing.T) {
	r := newDefault(t)

	want := "/help - Lists all commands\n\n" +
		"/stats - Shows karma stats\n\n" +
		"/karma - Adds karma\n  Args: user id or mention\n\n" +
		"/dekarm - Decreases karma\n  Args: user id or mention"
	assert.Equal(t, want, r.List())

	// стабильно между вызовами
	assert.Equal(t, r.List(), r.List())
	assert.Len(t, strings.Split(r.List(), "\n\n"), 4)
}

func TestRegistry_CustomSymbol(t *testing.T) {
	r := NewRegistry("!")
	require.NoError(t, r.Register("ping", BuildStats, "pong", ""))

	assert.Equal(t, "!help - Lists all commands\n\n!ping - pong", r.List())

	res, ok, err := r.Parse("!ping")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ping", res.Name)

	_, ok, err = r.Parse("/ping")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := NewRegistry("/")
	require.NoError(t, r.Register("foo", BuildStats, "", ""))

	err := r.Register("foo", BuildStats, "", "")
	assert.ErrorIs(t, err, common.ErrDuplicateCommand)

	err = r.Register("help", BuildHelp, "", "")
	assert.ErrorIs(t, err, common.ErrDuplicateCommand)

	err = r.Register("foo bar", BuildStats, "", "")
	assert.ErrorIs(t, err, common.ErrInvalidCommandName)

	// неудачная регистрация не попадает в справку
	assert.NotContains(t, r.List(), "foo bar")
}

func TestParse_NotACommand(t *testing.T) {
	r := newDefault(t)
	for _, text := range []string{"hello", "", "   ", "karma 123", "спасибо /karma 1"} {
		res, ok, err := r.Parse(text)
		assert.NoError(t, err, text)
		assert.False(t, ok, text)
		assert.Nil(t, res.Command, text)
	}
}

func TestParse_GiveKarma(t *testing.T) {
	r := newDefault(t)

	res, ok, err := r.Parse("/karma 123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "karma", res.Name)
	assert.Equal(t, []string{"123"}, res.Args)
	assert.Equal(t, GiveKarma{Target: "123"}, res.Command)
}

func TestParse_TrimsSpaces(t *testing.T) {
	r := newDefault(t)

	res, ok, err := r.Parse("   /dekarm [id42|Вася]  ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, TakeKarma{Target: "[id42|Вася]"}, res.Command)
}

func TestParse_PreservesEmptyTokens(t *testing.T) {
	r := NewRegistry("/")
	require.NoError(t, r.Register("echo", func(args []string) (Command, error) {
		return Help{}, nil
	}, "", ""))

	res, ok, err := r.Parse("/echo a  b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "", "b"}, res.Args)

	// для /karma лишний пустой токен — это лишний аргумент
	d := newDefault(t)
	_, _, err = d.Parse("/karma  123")
	assert.ErrorIs(t, err, common.ErrArgCount)
}

func TestParse_Errors(t *testing.T) {
	r := newDefault(t)

	_, ok, err := r.Parse("/unknown")
	assert.True(t, ok)
	assert.ErrorIs(t, err, common.ErrUnknownCommand)

	_, ok, err = r.Parse("/")
	assert.True(t, ok)
	assert.ErrorIs(t, err, common.ErrMissingCommandName)

	_, _, err = r.Parse("/ karma")
	assert.ErrorIs(t, err, common.ErrMissingCommandName)

	_, _, err = r.Parse("/karma")
	assert.ErrorIs(t, err, common.ErrArgCount)

	_, _, err = r.Parse("/stats now")
	assert.ErrorIs(t, err, common.ErrArgCount)
}

func TestParse_HelpAcceptsAnyArgs(t *testing.T) {
	r := newDefault(t)

	res, ok, err := r.Parse("/help me please")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Help{}, res.Command)
	assert.Equal(t, []string{"me", "please"}, res.Args)
}
