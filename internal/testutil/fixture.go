package testutil

import (
	"testing"

	"github.com/ailink-labs/ailink/internal/project"
)

// SampleProject parses the sample descriptor used across the engine tests.
func SampleProject(t testing.TB) *project.Project {
	t.Helper()
	p, err := project.Parse([]byte(SampleProjectJSON))
	if err != nil {
		t.Fatalf("failed to parse sample project: %v", err)
	}
	return p
}

// SampleProjectJSON is a small but complete project descriptor: a Date
// dimension roleplayed twice from the fact table ("Order {0}" and
// "Ship {0}"), a Geography dimension with a compound city key, a secondary
// attribute, an attached metrical attribute, a non-roleplayed Product
// dimension, a degenerate Status dimension on the cube, measures of every
// aggregation kind, and one referenced plus one unreferenced calculated
// member.
const SampleProjectJSON = `{
  "id": "proj1",
  "name": "Internet Sales",
  "attributes": {
    "keyed-attribute": [
      {"id": "a_year", "name": "Year", "key-ref": "k_year", "properties": {"caption": "Year"}},
      {"id": "a_month", "name": "Month", "key-ref": "k_month", "properties": {"caption": "Month"}},
      {"id": "a_day", "name": "Day", "key-ref": "k_date", "properties": {"caption": "Day", "description": "Calendar day"}},
      {"id": "a_country", "name": "Country", "key-ref": "k_country", "properties": {"caption": "Country"}},
      {"id": "a_city", "name": "City", "key-ref": "k_city", "properties": {"caption": "City"}},
      {"id": "a_city_band", "name": "Population Band", "key-ref": "k_band", "properties": {"caption": "Population Band", "folder": "Demographics"}},
      {"id": "a_region_join", "name": "Region Join", "key-ref": "k_region_join", "properties": {"caption": "Region Join"}},
      {"id": "a_product", "name": "Product", "key-ref": "k_prod", "properties": {"caption": "Product"}},
      {"id": "a_hidden", "name": "Internal Code", "key-ref": "k_hidden", "properties": {"caption": "Internal Code"}}
    ],
    "attribute": [
      {"id": "a_head", "name": "Headcount", "properties": {"caption": "Headcount", "type": {"measure": {"default-aggregation": "SUM"}}}}
    ]
  },
  "dimensions": {
    "dimension": [
      {
        "id": "d_date", "name": "Date", "properties": {},
        "hierarchy": [
          {
            "id": "h_date", "name": "Date Rollup", "properties": {"folder": "Time"},
            "level": [
              {"id": "l_year", "primary-attribute": "a_year", "properties": {"level-type": "TimeYears"}},
              {"id": "l_month", "primary-attribute": "a_month", "properties": {"level-type": "TimeMonths"}},
              {"id": "l_day", "primary-attribute": "a_day", "properties": {"level-type": "TimeDays"}}
            ]
          }
        ]
      },
      {
        "id": "d_geo", "name": "Geography", "properties": {},
        "hierarchy": [
          {
            "id": "h_geo", "name": "Geo Rollup", "properties": {"folder": "Places"},
            "level": [
              {"id": "l_country", "primary-attribute": "a_country", "properties": {}},
              {
                "id": "l_city", "primary-attribute": "a_city", "properties": {},
                "keyed-attribute-ref": [
                  {"attribute-id": "a_city_band", "properties": {}},
                  {"attribute-id": "a_region_join", "ref-id": "join1", "properties": {}}
                ],
                "attribute-ref": [
                  {"attribute-id": "a_head", "properties": {}}
                ]
              },
              {"id": "l_hidden", "primary-attribute": "a_hidden", "properties": {"visible": false}}
            ]
          }
        ]
      },
      {
        "id": "d_prod", "name": "Product", "properties": {},
        "hierarchy": [
          {
            "id": "h_prod", "name": "Product Rollup", "properties": {},
            "level": [
              {"id": "l_prod", "primary-attribute": "a_product", "properties": {}}
            ]
          }
        ]
      }
    ]
  },
  "datasets": {
    "data-set": [
      {
        "id": "ds_date", "name": "date_dim",
        "physical": {"name": "date_dim", "schema": "public", "database": "wh"},
        "logical": {
          "key-ref": [{"id": "k_date", "unique": true, "column": ["date_key"]}],
          "attribute-ref": [{"id": "a_day", "column": ["date_name"]}]
        }
      },
      {
        "id": "ds_city", "name": "city_dim",
        "physical": {"name": "city_dim", "schema": "public", "database": "wh"},
        "logical": {
          "key-ref": [{"id": "k_city", "column": ["city_id", "country_id"]}],
          "attribute-ref": [{"id": "a_city", "column": ["city_name"]}]
        }
      },
      {
        "id": "ds_country", "name": "country_dim",
        "physical": {"name": "country_dim", "schema": "public", "database": "wh"},
        "logical": {
          "key-ref": [{"id": "k_country", "column": ["country_id"]}],
          "attribute-ref": [{"id": "a_country", "column": ["country_name"]}]
        }
      }
    ]
  },
  "cubes": {
    "cube": [
      {
        "id": "cube1", "name": "Sales Cube", "properties": {},
        "data-sets": {
          "data-set-ref": [
            {
              "id": "ds_fact",
              "logical": {
                "key-ref": [
                  {"id": "k_date", "complete": "false", "column": ["order_date_key"], "ref-path": {"new-ref": {"ref-naming": "Order {0}", "ref-id": "rp_order"}}},
                  {"id": "k_date", "complete": "false", "column": ["ship_date_key"], "ref-path": {"new-ref": {"ref-naming": "Ship {0}", "ref-id": "rp_ship"}}},
                  {"id": "k_city", "complete": "false", "column": ["city_id", "country_id"]}
                ]
              }
            }
          ]
        },
        "attributes": {
          "keyed-attribute": [
            {"id": "a_status", "name": "Order Status", "properties": {"caption": "Order Status"}}
          ],
          "attribute": [
            {"id": "m_sales", "name": "Sales", "properties": {"caption": "Sales", "folder": "Money", "type": {"measure": {"default-aggregation": "SUM"}}}},
            {"id": "m_cost", "name": "Cost", "properties": {"caption": "Cost", "folder": "Money", "type": {"measure": {"default-aggregation": "SUM"}}}},
            {"id": "m_cust", "name": "Customer Count", "properties": {"caption": "Customer Count", "type": {"count-distinct": {"approximate": true}}}},
            {"id": "m_orders", "name": "Order Count", "properties": {"caption": "Order Count", "type": {"count-nonnull": {}}}}
          ]
        },
        "dimensions": {
          "dimension": [
            {
              "id": "d_status", "name": "Status", "properties": {},
              "hierarchy": [
                {
                  "id": "h_status", "name": "Status Rollup", "properties": {"folder": "Flags"},
                  "level": [
                    {"id": "l_status", "primary-attribute": "a_status", "properties": {}}
                  ]
                }
              ]
            }
          ]
        },
        "calculated-members": {
          "calculated-member-ref": [{"id": "cm_profit"}]
        }
      }
    ]
  },
  "calculated-members": {
    "calculated-member": [
      {"id": "cm_profit", "name": "Profit", "expression": "[Sales]-[Cost]", "properties": {"caption": "Profit", "folder": "Money"}},
      {"id": "cm_margin", "name": "Margin", "expression": "[Profit]/[Sales]", "properties": {}}
    ]
  },
  "perspectives": {"perspective": []}
}`
