package search

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// TopicProfile maps a logical research topic onto concrete provider
// parameters. Profiles are loaded once at startup and never mutated.
type TopicProfile struct {
	SearchDepth   Depth `yaml:"search_depth"`
	Topic         Topic `yaml:"topic"`
	Days          int   `yaml:"days"`
	MaxResults    int   `yaml:"max_results"`
	IncludeAnswer bool  `yaml:"include_answer"`
}

// TopicProfiles is an immutable topic -> profile table.
type TopicProfiles map[string]TopicProfile

// DefaultTopicProfiles returns the built-in research topic table.
func DefaultTopicProfiles() TopicProfiles {
	return TopicProfiles{
		"business": {SearchDepth: DepthAdvanced, Topic: TopicGeneral, Days: 3, MaxResults: 12, IncludeAnswer: true},
		"news":     {SearchDepth: DepthBasic, Topic: TopicNews, Days: 1, MaxResults: 10, IncludeAnswer: true},
		"finance":  {SearchDepth: DepthAdvanced, Topic: TopicGeneral, Days: 3, MaxResults: 12, IncludeAnswer: true},
		"politics": {SearchDepth: DepthBasic, Topic: TopicNews, Days: 2, MaxResults: 10, IncludeAnswer: true},
	}
}

// LoadTopicProfiles reads a profile table from a YAML file. An empty path
// returns the defaults.
func LoadTopicProfiles(path string) (TopicProfiles, error) {
	if path == "" {
		return DefaultTopicProfiles(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topic profiles: %w", err)
	}

	profiles := TopicProfiles{}
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse topic profiles: %w", err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("topic profiles file %s defines no topics", path)
	}

	for name, profile := range profiles {
		if err := profile.validate(); err != nil {
			return nil, fmt.Errorf("topic %q: %w", name, err)
		}
	}

	return profiles, nil
}

// Names returns the profile names in stable order.
func (p TopicProfiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (tp TopicProfile) validate() error {
	switch tp.SearchDepth {
	case DepthBasic, DepthAdvanced:
	default:
		return fmt.Errorf("invalid search_depth %q", tp.SearchDepth)
	}
	switch tp.Topic {
	case TopicGeneral, TopicNews, TopicFinance:
	default:
		return fmt.Errorf("invalid topic %q", tp.Topic)
	}
	if tp.MaxResults < MinResults || tp.MaxResults > MaxResults {
		return fmt.Errorf("max_results %d out of range [%d,%d]", tp.MaxResults, MinResults, MaxResults)
	}
	if tp.Days < 0 {
		return fmt.Errorf("days must not be negative")
	}
	return nil
}

// Request builds the provider request for this profile. The topic name is
// appended to the query the way the research tool always has.
func (tp TopicProfile) Request(query, topicName string) SearchRequest {
	return SearchRequest{
		Query:         fmt.Sprintf("%s %s", query, topicName),
		Topic:         tp.Topic,
		SearchDepth:   tp.SearchDepth,
		MaxResults:    tp.MaxResults,
		Days:          tp.Days,
		IncludeAnswer: tp.IncludeAnswer,
	}
}
