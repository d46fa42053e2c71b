// Package graph provides the serialization types of hiergraph.
//
// This package defines the wire formats exchanged with the rendering layer
// and stored in caches.
//
// # Core Types
//
//   - [Elements]: the render contract, a flat set of nodes, edges and
//     containers for one view (level plus expansion state)
//   - [Document]: a transformed entity graph with its cycle data, cached
//     between runs and convertible with [FromEntities]/[ToEntities]
//
// # Elements Format
//
//	{
//	  "nodes": [
//	    {"id": "mod:a", "name": "a", "kind": "module", "level": 1,
//	     "containerParentId": "package-container", "isInCycle": false}
//	  ],
//	  "edges": [
//	    {"id": "mod:a-mod:b", "source": "mod:a", "target": "mod:b",
//	     "kind": "import", "isInCycle": false}
//	  ],
//	  "containers": [
//	    {"id": "package-container", "kind": "package-container",
//	     "label": "shop", "memberIds": ["mod:a", "mod:b"]}
//	  ]
//	}
//
// Container ids are derived from the anchoring entity id:
//
//	graph.PackageContainerID           // "package-container"
//	graph.ModuleContainerID("mod:a")   // "module-container-mod:a"
//	graph.ClassContainerID("cls:x:C")  // "class-container-cls:x:C"
package graph
