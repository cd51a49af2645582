package analyzer

// frameworkPattern 框架名与其匹配子串，按声明顺序依次检查
type frameworkPattern struct {
	Name     string
	Patterns []string
}

var frameworkDictionary = []frameworkPattern{
	// JavaScript / TypeScript
	{"React", []string{"react", "jsx", "tsx", "react-dom", "next.js", "gatsby"}},
	{"Vue.js", []string{"vue", "vuejs", "nuxt", "vue-cli", "vite"}},
	{"Angular", []string{"angular", "@angular", "ng", "angular-cli"}},
	{"Node.js", []string{"node", "nodejs", "express", "koa", "fastify", "nest"}},
	{"Svelte", []string{"svelte", "sveltekit"}},

	// Python
	{"Django", []string{"django", "django-rest-framework"}},
	{"Flask", []string{"flask", "flask-restful"}},
	{"FastAPI", []string{"fastapi", "starlette"}},
	{"Pandas", []string{"pandas", "numpy", "scipy"}},
	{"TensorFlow", []string{"tensorflow", "tf", "keras"}},
	{"PyTorch", []string{"torch", "pytorch", "torchvision"}},

	// Java
	{"Spring", []string{"spring", "spring-boot", "spring-framework"}},
	{"Spring Boot", []string{"spring-boot", "springboot"}},

	// C#
	{".NET", []string{"dotnet", ".net", "aspnet", "asp.net"}},
	{"ASP.NET", []string{"aspnet", "asp.net"}},

	// PHP
	{"Laravel", []string{"laravel", "artisan"}},
	{"Symfony", []string{"symfony"}},
	{"CodeIgniter", []string{"codeigniter"}},

	// Ruby
	{"Ruby on Rails", []string{"rails", "ruby-on-rails", "ror"}},

	// Go
	{"Gin", []string{"gin-gonic", "gin"}},
	{"Echo", []string{"echo"}},
	{"Fiber", []string{"fiber"}},

	// 数据库与工具
	{"Docker", []string{"docker", "dockerfile", "docker-compose"}},
	{"Kubernetes", []string{"kubernetes", "k8s", "kubectl"}},
	{"MongoDB", []string{"mongodb", "mongo", "mongoose"}},
	{"PostgreSQL", []string{"postgresql", "postgres", "pg"}},
	{"MySQL", []string{"mysql"}},
	{"Redis", []string{"redis"}},
	{"GraphQL", []string{"graphql", "apollo"}},
	{"REST API", []string{"rest", "api", "restful"}},

	// 前端工具
	{"Webpack", []string{"webpack"}},
	{"Vite", []string{"vite"}},
	{"Tailwind CSS", []string{"tailwind", "tailwindcss"}},
	{"Bootstrap", []string{"bootstrap"}},
	{"Sass/SCSS", []string{"sass", "scss"}},

	// 测试
	{"Jest", []string{"jest"}},
	{"Cypress", []string{"cypress"}},
	{"Pytest", []string{"pytest"}},
	{"JUnit", []string{"junit"}},

	// 云与 DevOps
	{"AWS", []string{"aws", "amazon-web-services"}},
	{"Azure", []string{"azure", "microsoft-azure"}},
	{"Google Cloud", []string{"gcp", "google-cloud"}},
	{"Terraform", []string{"terraform"}},
	{"Jenkins", []string{"jenkins"}},
	{"GitHub Actions", []string{"github-actions", "actions"}},
}
