package mapping

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"kickoff/internal/intake/models"
)

type MapperSuite struct {
	suite.Suite
	mapper *Mapper
}

func TestMapperSuite(t *testing.T) {
	suite.Run(t, new(MapperSuite))
}

func (s *MapperSuite) SetupTest() {
	s.mapper = NewMapper(MustTable(Definition{
		Name: "test",
		Fields: map[string]string{
			"a3f1c2d4-name":  "FullName",
			"b7e2d9a1-email": "Email",
			"c1d2e3f4-city":  "City",
			"d9c8b7a6-heard": "HeardFrom",
			"e5f6a7b8-optin": "OptIn",
			"f0e1d2c3-age":   "Age",
		},
		Required:   []string{"FullName", "Email", "City"},
		NameField:  "FullName",
		EmailField: "Email",
	}))
}

func text(ref, v string) models.Answer {
	return models.Answer{FieldRef: ref, Kind: models.KindText, Text: v}
}

func (s *MapperSuite) TestCompleteSubmission() {
	record := s.mapper.Map(models.Submission{Answers: []models.Answer{
		text("a3f1c2d4-name", "Alex Morgan"),
		{FieldRef: "b7e2d9a1-email", Kind: models.KindEmail, Text: "alex@league.test"},
		{FieldRef: "c1d2e3f4-city", Kind: models.KindChoice, Text: "Leeds"},
	}})

	s.Equal(map[string]string{
		"FullName": "Alex Morgan",
		"Email":    "alex@league.test",
		"City":     "Leeds",
		"STATUS":   "Submitted",
	}, record.Fields)
	s.Equal("Alex Morgan", record.FullName)
	s.Equal("alex@league.test", record.Email)
	s.Empty(record.MissingRequired)
	s.Empty(record.UnmappedRefs)
	s.False(record.HasMissing())
}

func (s *MapperSuite) TestFlattening() {
	s.Run("multi choice joins labels in vendor order", func() {
		record := s.mapper.Map(models.Submission{Answers: []models.Answer{
			{FieldRef: "d9c8b7a6-heard", Kind: models.KindChoices, Labels: []string{"Instagram", "TikTok"}},
		}})
		s.Equal("Instagram, TikTok", record.Fields["HeardFrom"])
	})

	s.Run("booleans become Yes and No", func() {
		s.Equal("Yes", Flatten(models.Answer{Kind: models.KindBoolean, Bool: true}))
		s.Equal("No", Flatten(models.Answer{Kind: models.KindBoolean}))
	})

	s.Run("numbers use shortest decimal form", func() {
		s.Equal("24", Flatten(models.Answer{Kind: models.KindNumber, Number: 24}))
		s.Equal("1.75", Flatten(models.Answer{Kind: models.KindNumber, Number: 1.75}))
	})

	s.Run("empty multi choice is empty text", func() {
		s.Equal("", Flatten(models.Answer{Kind: models.KindChoices}))
	})
}

func (s *MapperSuite) TestUnmappedRefsAreReportedNotFatal() {
	record := s.mapper.Map(models.Submission{Answers: []models.Answer{
		text("zz-unknown-1", "ignored"),
		text("a3f1c2d4-name", "Alex Morgan"),
		text("zz-unknown-2", "ignored"),
	}})

	s.Equal([]string{"zz-unknown-1", "zz-unknown-2"}, record.UnmappedRefs)
	s.Equal("Alex Morgan", record.Fields["FullName"])
	s.NotContains(record.Fields, "zz-unknown-1")
}

func (s *MapperSuite) TestMissingRequired() {
	s.Run("absent answers in declaration order", func() {
		record := s.mapper.Map(models.Submission{})
		s.Equal([]string{"FullName", "Email", "City"}, record.MissingRequired)
		s.Empty(record.FullName)
		s.Empty(record.Email)
		s.Equal("Submitted", record.Fields["STATUS"], "status is set even on incomplete records")
	})

	s.Run("blank answers count as missing", func() {
		record := s.mapper.Map(models.Submission{Answers: []models.Answer{
			text("a3f1c2d4-name", "Alex Morgan"),
			{FieldRef: "b7e2d9a1-email", Kind: models.KindEmail, Text: "  "},
			{FieldRef: "c1d2e3f4-city", Kind: models.KindChoices},
		}})
		s.Equal([]string{"Email", "City"}, record.MissingRequired)
		s.Empty(record.Email)
	})
}

func (s *MapperSuite) TestLaterAnswerWins() {
	record := s.mapper.Map(models.Submission{Answers: []models.Answer{
		text("c1d2e3f4-city", "Leeds"),
		text("c1d2e3f4-city", "Bristol"),
	}})
	s.Equal("Bristol", record.Fields["City"])
}

func (s *MapperSuite) TestStatusIsNotSourcedFromAnswers() {
	mapper := NewMapper(MustTable(Definition{
		Fields:      map[string]string{"status": "STATUS", "name": "Title"},
		StatusValue: "Received",
	}))

	record := mapper.Map(models.Submission{Answers: []models.Answer{text("status", "Approved")}})

	s.Equal("Received", record.Fields["STATUS"])
}

func (s *MapperSuite) TestCanonicalFieldsAreTableDriven() {
	mapper := NewMapper(MustTable(Definition{
		Fields:     map[string]string{"who": "Subscriber", "addr": "ContactEmail"},
		NameField:  "Subscriber",
		EmailField: "ContactEmail",
	}))

	record := mapper.Map(models.Submission{Answers: []models.Answer{
		text("who", "Sam Kerr"),
		{FieldRef: "addr", Kind: models.KindEmail, Text: "sam@league.test"},
	}})

	s.Equal("Sam Kerr", record.FullName)
	s.Equal("sam@league.test", record.Email)
}

func (s *MapperSuite) TestMapDoesNotShareState() {
	first := s.mapper.Map(models.Submission{Answers: []models.Answer{text("c1d2e3f4-city", "Leeds")}})
	second := s.mapper.Map(models.Submission{})

	s.Equal("Leeds", first.Fields["City"])
	s.NotContains(second.Fields, "City")
}
