// Package analysis decodes code-dependency analysis results.
//
// # Overview
//
// An analysis result lists the entities of a code base (packages, modules,
// classes, methods and fields), their declared relationships and the
// circular-dependency groups detected in them. Records are loosely typed:
// every field is optional and a record may even be malformed. This package
// therefore decodes the document structure eagerly but keeps each entity
// record as raw JSON; [DecodeRecord] turns one record into a [Record] when
// the transformer reaches it, so a bad record costs one skipped item rather
// than the whole document.
//
// # JSON Format
//
// The flat form:
//
//	{
//	  "project_name": "shop",
//	  "packages": [{"id": "pkg:shop"}],
//	  "modules":  [{"id": "mod:shop.orders", "imports": [{"module": "shop.users"}],
//	                "classes": ["cls:mod:shop.orders:Order"]}],
//	  "classes":  [{"id": "cls:mod:shop.orders:Order", "module_id": "mod:shop.orders"}],
//	  "methods":  [{"id": "meth:cls:mod:shop.orders:Order:total:12", "name": "total"}],
//	  "fields":   [],
//	  "cycles":   {"cycles": [{"entities": ["mod:a", "mod:b"],
//	                           "paths": [{"from": "mod:a", "to": "mod:b"}]}]}
//	}
//
// The analysis server form nests the collections under "dependency_graph"
// and the project name under "project_info":
//
//	{"dependency_graph": {"modules": [...]}, "cycles": [...], "project_info": {"name": "shop"}}
//
// Imports may be objects {"module", "import_type"} or bare strings. Id lists
// ("classes", "functions", "methods", "fields") may hold strings or objects
// with an "id".
//
// # Usage
//
//	res, err := analysis.Load("analysis.json")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.ProjectName, res.Size())
package analysis
