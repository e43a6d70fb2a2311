package svo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/scivar-kg/backend/pkg/logger"
)

// Client queries a SPARQL endpoint over HTTP. Label searches are cached per
// (term, class) for the lifetime of the client.
type Client struct {
	endpoint   string
	httpClient *http.Client

	cache   map[string][]Entity
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewClientParams contains configuration for creating an ontology Client.
type NewClientParams struct {
	Endpoint string
	Timeout  time.Duration
}

// NewClient creates a client for the SPARQL endpoint.
func NewClient(params NewClientParams) *Client {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   params.Endpoint,
		httpClient: &http.Client{Timeout: timeout},
		cache:      map[string][]Entity{},
	}
}

const queryPrefixes = `PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
PREFIX svu: <http://www.geoscienceontology.org/svo/svu#>
PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
`

// classFilter builds the class-suffix regex alternation for a query. An
// unknown class falls back to all valid classes with a warning.
func classFilter(class string) string {
	if class == "" || class == "All" {
		return "#" + strings.Join(ValidClasses, "|#")
	}
	for _, valid := range ValidClasses {
		if class == valid {
			return "#" + class
		}
	}
	logger.Warn("Unknown ontology class filter, searching all classes", "class", class)
	return "#" + strings.Join(ValidClasses, "|#")
}

// sparqlResults is the SPARQL 1.1 JSON results format, reduced to the parts
// used here.
type sparqlResults struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

func (c *Client) query(ctx context.Context, query string) (*sparqlResults, error) {
	form := url.Values{"query": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach sparql endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sparql endpoint returned status %d", resp.StatusCode)
	}

	var results sparqlResults
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode sparql results: %w", err)
	}
	return &results, nil
}

// SearchLabel finds entities whose rdfs:label contains term as a whole word.
// The term is split into words and each word searched independently; the
// returned entities carry the word that matched in Term.
func (c *Client) SearchLabel(ctx context.Context, term string, class string) ([]Entity, error) {
	cacheKey := class + "\x00" + term

	c.cacheMu.RLock()
	if cached, ok := c.cache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		return cached, nil
	}
	c.cacheMu.RUnlock()

	result, err, _ := c.group.Do(cacheKey, func() (any, error) {
		var entities []Entity
		for _, word := range strings.Fields(strings.ReplaceAll(term, "_", " ")) {
			// whole-word match: bounded by string edges, ~, _, -, or space,
			// so "rice" does not match "price"
			query := queryPrefixes + fmt.Sprintf(`
SELECT DISTINCT ?entity ?preflabel ?entitylabel ?entityclass
WHERE {
       ?entity rdf:type ?entityclass .
       BIND (STR(?entityclass) as ?classstr) .
       FILTER regex(?classstr,"(%s)$","i") .
       ?entity rdfs:label ?elabel .
       BIND (STR(?elabel) as ?entitylabel) .
       FILTER regex(?entitylabel,"(?=.*(^|~|_|-| )%s($|~|_|-| ))","i") .
       ?entity skos:prefLabel ?plabel .
       BIND (STR(?plabel) as ?preflabel) .
       }
ORDER BY ?entity ?entitylabel ?entityclass
`, classFilter(class), word)

			results, err := c.query(ctx, query)
			if err != nil {
				return nil, err
			}
			for _, row := range results.Results.Bindings {
				entities = append(entities, Entity{
					Term:      word,
					URI:       row["entity"].Value,
					Label:     row["entitylabel"].Value,
					PrefLabel: row["preflabel"].Value,
					Class:     shortClass(row["entityclass"].Value),
				})
			}
		}

		c.cacheMu.Lock()
		c.cache[cacheKey] = entities
		c.cacheMu.Unlock()

		return entities, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Entity), nil
}

// SearchLinks finds all entities linked to the given first-degree entities,
// keeping the search term of the entity each link came from.
func (c *Client) SearchLinks(ctx context.Context, entities []Entity, class string) ([]Entity, error) {
	var linked []Entity
	seen := map[string]bool{}
	for _, entity := range entities {
		if seen[entity.URI] {
			continue
		}
		seen[entity.URI] = true

		query := queryPrefixes + fmt.Sprintf(`
SELECT DISTINCT ?linkedentity ?preflabel ?linkedlabel ?linkedclass
WHERE {
       ?linkedentity ?rel <%s> .
       ?linkedentity rdf:type ?linkedclass .
       BIND (STR(?linkedclass) as ?lclassstr) .
       FILTER regex(?lclassstr,"(%s)$","i") .
       ?linkedentity rdfs:label ?llabel .
       ?linkedentity skos:prefLabel ?plabel .
       BIND (STR(?plabel) as ?preflabel) .
       BIND (STR(?llabel) as ?linkedlabel) .
        }
ORDER BY ?linkedentity ?linkedlabel ?linkedclass
`, entity.URI, classFilter(class))

		results, err := c.query(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, row := range results.Results.Bindings {
			linked = append(linked, Entity{
				Term:      entity.Term,
				URI:       row["linkedentity"].Value,
				Label:     row["linkedlabel"].Value,
				PrefLabel: row["preflabel"].Value,
				Class:     shortClass(row["linkedclass"].Value),
				Linked:    true,
			})
		}
	}
	return linked, nil
}

// RankSearch searches for all given synonym terms, traverses links from the
// first-degree matches, and returns the combined candidates ranked and
// deduplicated per entity.
func (c *Client) RankSearch(ctx context.Context, terms []string, class string) ([]Entity, error) {
	var firstDegree []Entity
	searched := map[string]bool{}
	for _, term := range terms {
		if term == "" || searched[term] {
			continue
		}
		searched[term] = true
		found, err := c.SearchLabel(ctx, term, class)
		if err != nil {
			return nil, err
		}
		firstDegree = append(firstDegree, found...)
	}

	secondDegree, err := c.SearchLinks(ctx, firstDegree, class)
	if err != nil {
		return nil, err
	}

	return RankEntities(terms, append(firstDegree, secondDegree...)), nil
}

func shortClass(uri string) string {
	if i := strings.LastIndex(uri, "#"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
