package playerlog

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/harutoki/licensegate/internal/model"
)

type ParseSuite struct {
	suite.Suite
}

func TestParseSuite(t *testing.T) {
	suite.Run(t, new(ParseSuite))
}

func (s *ParseSuite) TestParsePlainLine() {
	line, err := ParseLine("12345: Alice")
	s.Require().NoError(err)

	s.Equal(model.FriendCode(12345), line.FriendCode)
	s.Equal("Alice", line.Name)
	s.False(line.Blacklist)
}

func (s *ParseSuite) TestParsePlainLineNameKeepsInnerSpaces() {
	line, err := ParseLine("12345: Alice the Great")
	s.Require().NoError(err)

	s.Equal("Alice the Great", line.Name)
}

func (s *ParseSuite) TestParseBlacklistLine() {
	line, err := ParseLine("(12345, cheater): (Alice)")
	s.Require().NoError(err)

	s.Equal(model.FriendCode(12345), line.FriendCode)
	s.Equal("Alice", line.Name)
	s.True(line.Blacklist)
	s.Equal("cheater", line.BlacklistName)
}

func (s *ParseSuite) TestParseBlacklistLineWithEmptyName() {
	line, err := ParseLine("(12345, spammer): ()")
	s.Require().NoError(err)

	s.True(line.Blacklist)
	s.Equal("", line.Name)
}

func (s *ParseSuite) TestParseToleratesSurroundingWhitespace() {
	line, err := ParseLine("  12345:   Alice  ")
	s.Require().NoError(err)

	s.Equal(model.FriendCode(12345), line.FriendCode)
	s.Equal("Alice", line.Name)
}

func (s *ParseSuite) TestParseBlankLine() {
	_, err := ParseLine("   ")
	s.ErrorIs(err, errBlankLine)
}

func (s *ParseSuite) TestParseMalformedLine() {
	_, err := ParseLine("not a log line")
	s.ErrorIs(err, model.ErrMalformedInput)
}

func (s *ParseSuite) TestParseNonNumericFriendCode() {
	_, err := ParseLine("abc: Alice")
	s.ErrorIs(err, model.ErrMalformedInput)
}

func (s *ParseSuite) TestFormatPlainLine() {
	record := &model.PlayerRecord{FriendCode: 12345, Name: "Alice"}
	s.Equal("12345: Alice", FormatLine(record))
}

func (s *ParseSuite) TestFormatBlacklistLine() {
	record := &model.PlayerRecord{
		FriendCode:    12345,
		Name:          "Alice",
		Blacklisted:   true,
		BlacklistName: "cheater",
	}
	s.Equal("(12345, cheater): (Alice)", FormatLine(record))
}

func (s *ParseSuite) TestFormatThenParseRoundTrips() {
	record := &model.PlayerRecord{
		FriendCode:    777,
		Name:          "Bob",
		Blacklisted:   true,
		BlacklistName: "smurf",
	}

	line, err := ParseLine(FormatLine(record))
	s.Require().NoError(err)
	s.Equal(record.FriendCode, line.FriendCode)
	s.Equal(record.Name, line.Name)
	s.True(line.Blacklist)
	s.Equal(record.BlacklistName, line.BlacklistName)
}
